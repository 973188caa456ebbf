// Package gitutil provides the git-backed primitives component G (the
// Incremental Engine) needs: repo metadata and a names-with-status diff
// since a prior commit. Grounded on the teacher's internal/git/
// history.go, which shells out to the `git` binary via os/exec
// (RepoMetadata, LastNCommits, DiffAgainst, StagedDiff). Reworked onto
// github.com/go-git/go-git/v5 (already an indirect teacher dependency,
// promoted here to the primary git backend) so the engine has no
// dependency on a `git` binary being present on PATH.
package gitutil

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ChangeStatus mirrors the {added, modified, deleted} vocabulary
// spec.md §4.G's changed-set computation uses.
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusModified ChangeStatus = "modified"
	StatusDeleted  ChangeStatus = "deleted"
)

// IsRepo reports whether root is (inside) a git working tree.
func IsRepo(root string) bool {
	_, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// RepoMetadata returns (repo, commit, branch), best-effort, mirroring
// the teacher's RepoMetadata but read via go-git plumbing instead of
// shelling out to `git config`/`rev-parse`.
func RepoMetadata(root string) (repo, commit, branch string) {
	r, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", ""
	}
	if remotes, err := r.Remotes(); err == nil {
		for _, rem := range remotes {
			if rem.Config().Name == "origin" && len(rem.Config().URLs) > 0 {
				repo = normalizeRemoteURL(rem.Config().URLs[0])
				break
			}
		}
	}
	head, err := r.Head()
	if err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		}
	}
	return repo, commit, branch
}

func normalizeRemoteURL(u string) string {
	s := strings.TrimSuffix(u, ".git")
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i:], "//") {
		s = s[i+1:]
	}
	if i := strings.Index(s, "github.com/"); i >= 0 {
		s = s[i+len("github.com/"):]
	}
	return s
}

// DiffSince returns the names-with-status changed set between
// sinceCommit (exclusive) and the working tree HEAD (inclusive),
// covering both committed history and uncommitted worktree changes.
// When sinceCommit is empty, every tracked file is reported as added.
func DiffSince(root, sinceCommit string) (map[string]ChangeStatus, error) {
	r, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	headRef, err := r.Head()
	if err != nil {
		return nil, err
	}
	headCommit, err := r.CommitObject(headRef.Hash())
	if err != nil {
		return nil, err
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, err
	}

	out := make(map[string]ChangeStatus)

	var baseTree *object.Tree
	if sinceCommit != "" {
		if baseCommit, err := r.CommitObject(plumbing.NewHash(sinceCommit)); err == nil {
			baseTree, _ = baseCommit.Tree()
		}
	}

	if baseTree == nil {
		// No usable base: every file currently in HEAD counts as added.
		walker := object.NewTreeWalker(headTree, true, nil)
		defer walker.Close()
		for {
			name, entry, err := walker.Next()
			if err != nil {
				break
			}
			if !entry.Mode.IsFile() {
				continue
			}
			out[name] = StatusAdded
		}
	} else {
		changes, err := baseTree.Diff(headTree)
		if err != nil {
			return nil, err
		}
		for _, c := range changes {
			action, err := c.Action()
			if err != nil {
				continue
			}
			path := c.To.Name
			if path == "" {
				path = c.From.Name
			}
			switch action {
			case merkletrie.Insert:
				out[path] = StatusAdded
			case merkletrie.Delete:
				out[path] = StatusDeleted
			default:
				out[path] = StatusModified
			}
		}
	}

	// Layer in uncommitted worktree changes, which take precedence over
	// the committed diff for the same path.
	wt, err := r.Worktree()
	if err == nil {
		st, err := wt.Status()
		if err == nil {
			for path, fileStatus := range st {
				switch {
				case fileStatus.Worktree == 'D' || fileStatus.Staging == 'D':
					out[path] = StatusDeleted
				case fileStatus.Worktree == '?' || fileStatus.Staging == 'A':
					out[path] = StatusAdded
				default:
					out[path] = StatusModified
				}
			}
		}
	}

	return out, nil
}
