package incremental

import (
	"fmt"
	"sync"

	"github.com/vibecheck/vibecheck/internal/fingerprint"
	"github.com/vibecheck/vibecheck/internal/gitutil"
)

// ChangeSet is the {added, modified, deleted, affected} result spec.md
// §4.G's changed-set computation produces.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
	Affected []string
}

// hashBatchSize is the parallel comparison batch size spec.md §4.G
// mandates for the hash-fallback path.
const hashBatchSize = 50

// Compute builds a ChangeSet for the current file list against s.
// useGitDiff selects git-diff mode when projectRoot is a repo; otherwise
// the hash-fallback path runs.
func Compute(s *State, projectRoot string, currentFiles []string, useGitDiff bool) ChangeSet {
	var cs ChangeSet
	if useGitDiff && gitutil.IsRepo(projectRoot) {
		cs = computeViaGitDiff(s, projectRoot, currentFiles)
	} else {
		cs = computeViaHashFallback(s, projectRoot, currentFiles)
	}
	cs.Affected = propagateAffected(s, cs)
	return cs
}

func computeViaGitDiff(s *State, projectRoot string, currentFiles []string) ChangeSet {
	changes, err := gitutil.DiffSince(projectRoot, s.LastCommit)
	if err != nil {
		return computeViaHashFallback(s, projectRoot, currentFiles)
	}

	current := make(map[string]bool, len(currentFiles))
	for _, f := range currentFiles {
		current[f] = true
	}

	var cs ChangeSet
	for path, status := range changes {
		if !current[path] && status != gitutil.StatusDeleted {
			continue // git reports a path our glob set excludes
		}
		switch status {
		case gitutil.StatusAdded:
			cs.Added = append(cs.Added, path)
		case gitutil.StatusDeleted:
			cs.Deleted = append(cs.Deleted, path)
		case gitutil.StatusModified:
			// Re-verify against the cached hash to avoid false positives
			// from touch-only changes (spec.md §4.G step 2).
			fp := fingerprint.FingerprintFile(projectRoot, path)
			if cached, ok := s.FileHashes[path]; !ok || cached.ContentHash != fp.ContentHash {
				cs.Modified = append(cs.Modified, path)
			}
		}
	}
	return cs
}

func computeViaHashFallback(s *State, projectRoot string, currentFiles []string) ChangeSet {
	var cs ChangeSet
	current := make(map[string]bool, len(currentFiles))
	for _, f := range currentFiles {
		current[f] = true
	}

	for cached := range s.FileHashes {
		if !current[cached] {
			cs.Deleted = append(cs.Deleted, cached)
		}
	}

	type result struct {
		path   string
		status string // "added" | "modified" | "unchanged"
	}
	results := make([]result, len(currentFiles))

	for start := 0; start < len(currentFiles); start += hashBatchSize {
		end := start + hashBatchSize
		if end > len(currentFiles) {
			end = len(currentFiles)
		}
		batch := currentFiles[start:end]
		var wg sync.WaitGroup
		for i, path := range batch {
			idx := start + i
			p := path
			wg.Add(1)
			go func() {
				defer wg.Done()
				quick := quickHashFile(projectRoot, p)
				cached, ok := s.FileHashes[p]
				if !ok {
					results[idx] = result{path: p, status: "added"}
					return
				}
				if quick == quickHashValue(cached.ByteSize, cached.MtimeMs) {
					results[idx] = result{path: p, status: "unchanged"}
					return
				}
				fp := fingerprint.FingerprintFile(projectRoot, p)
				if fp.ContentHash != cached.ContentHash {
					results[idx] = result{path: p, status: "modified"}
				} else {
					results[idx] = result{path: p, status: "unchanged"}
				}
			}()
		}
		wg.Wait()
	}

	for _, r := range results {
		switch r.status {
		case "added":
			cs.Added = append(cs.Added, r.path)
		case "modified":
			cs.Modified = append(cs.Modified, r.path)
		}
	}
	return cs
}

// quickHashFile and quickHashValue implement a cheap pre-filter: rather
// than re-reading and re-hashing every file's content with SHA-256, a
// file whose byte_size and mtime_ms haven't changed is presumed
// unchanged. When they differ, the caller falls through to the
// canonical content-hash comparison.
func quickHashFile(root, relPath string) uint64 {
	fp := fingerprint.FingerprintFile(root, relPath)
	return quickHashValue(fp.ByteSize, fp.MtimeMs)
}

func quickHashValue(byteSize, mtimeMs int64) uint64 {
	return fingerprint.QuickHash([]byte(fmt.Sprintf("%d:%d", byteSize, mtimeMs)))
}

// propagateAffected follows reverse edges of the dependency graph from
// modified ∪ added; the transitive closure minus the primary change set
// is "affected" (spec.md §4.G step 4).
func propagateAffected(s *State, cs ChangeSet) []string {
	reverse := make(map[string][]string)
	for path, edges := range s.DepGraph {
		for _, dep := range edges {
			reverse[dep] = append(reverse[dep], path)
		}
	}

	primary := make(map[string]bool)
	var frontier []string
	for _, p := range cs.Modified {
		primary[p] = true
		frontier = append(frontier, p)
	}
	for _, p := range cs.Added {
		primary[p] = true
		frontier = append(frontier, p)
	}

	visited := make(map[string]bool)
	var affected []string
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		for _, dependent := range reverse[next] {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true
			if !primary[dependent] {
				affected = append(affected, dependent)
			}
			frontier = append(frontier, dependent)
		}
	}
	return affected
}
