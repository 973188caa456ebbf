// Package incremental is component G: persisted hash+dependency state
// and changed-set computation via git diff or a hash fallback.
// Grounded on the teacher's internal/git/history.go (diff backend,
// reworked onto internal/gitutil/go-git) and internal/cache/cache.go's
// load-whole-file/save-whole-file persistence style, generalized from a
// flat map[path]hash into the full {file_hashes, dep_graph,
// cached_findings, project_root} record spec.md §3 "Incremental State"
// names.
package incremental

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/vibecheck/vibecheck/internal/errs"
	"github.com/vibecheck/vibecheck/internal/types"
)

const stateVersion = 1

// State is the persisted incremental-scan record (spec.md §3).
type State struct {
	Version        int                          `json:"version"`
	LastScanMs     int64                        `json:"last_scan_ms"`
	LastCommit     string                       `json:"last_commit,omitempty"`
	FileHashes     map[string]types.Fingerprint `json:"file_hashes"`
	DepGraph       map[string][]string          `json:"dep_graph"`
	CachedFindings map[string][]types.Finding   `json:"cached_findings"`
	ProjectRoot    string                       `json:"project_root"`
}

func empty(projectRoot string) *State {
	return &State{
		Version:        stateVersion,
		FileHashes:     make(map[string]types.Fingerprint),
		DepGraph:       make(map[string][]string),
		CachedFindings: make(map[string][]types.Finding),
		ProjectRoot:    projectRoot,
	}
}

// StatePath is the on-disk location of the persisted state under a
// project's .vibecheck directory.
func StatePath(projectRoot string) string {
	return filepath.Join(projectRoot, ".vibecheck", "incremental_state.json")
}

// Load reads persisted state for projectRoot. A missing file yields a
// fresh empty State rather than an error — the engine's normal
// first-run case. State is rejected (and a fresh one returned) when
// project_root differs from the caller's root, or its age exceeds
// maxCacheAgeMs (spec.md §3 invariant I3).
func Load(projectRoot string, maxCacheAgeMs int64) (*State, error) {
	path := StatePath(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty(projectRoot), nil
		}
		return nil, errs.Wrap(errs.CacheCorrupt, "reading incremental state", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errs.Wrap(errs.CacheCorrupt, "parsing incremental state", err)
	}
	if s.ProjectRoot != projectRoot {
		return empty(projectRoot), nil
	}
	if maxCacheAgeMs > 0 && time.Now().UnixMilli()-s.LastScanMs > maxCacheAgeMs {
		return empty(projectRoot), nil
	}
	if s.FileHashes == nil {
		s.FileHashes = make(map[string]types.Fingerprint)
	}
	if s.DepGraph == nil {
		s.DepGraph = make(map[string][]string)
	}
	if s.CachedFindings == nil {
		s.CachedFindings = make(map[string][]types.Finding)
	}
	return &s, nil
}

// Save atomically persists state: write to a temp file in the same
// directory, then rename over the destination.
func Save(s *State) error {
	path := StatePath(s.ProjectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// UpdateState rewrites hashes/findings/dep-graph for scanned paths only
// and persists the result (spec.md §4.G).
func (s *State) UpdateState(scannedHashes map[string]types.Fingerprint, findings map[string][]types.Finding, deps map[string][]string, commit string) error {
	for path, fp := range scannedHashes {
		s.FileHashes[path] = fp
	}
	for path, fs := range findings {
		s.CachedFindings[path] = fs
	}
	for path, edges := range deps {
		s.DepGraph[path] = edges
	}
	s.LastScanMs = time.Now().UnixMilli()
	if commit != "" {
		s.LastCommit = commit
	}
	return Save(s)
}

// Invalidate removes paths from all three maps, e.g. on explicit
// cache-bust or truthpack reset.
func (s *State) Invalidate(paths []string) {
	for _, p := range paths {
		delete(s.FileHashes, p)
		delete(s.DepGraph, p)
		delete(s.CachedFindings, p)
	}
}

// Validate checks invariants I1 and I2: every cached_findings key is
// also in file_hashes, and every dep_graph edge points to a path
// present in file_hashes. Used by tests and `vibecheck` diagnostics.
func (s *State) Validate() error {
	for path := range s.CachedFindings {
		if _, ok := s.FileHashes[path]; !ok {
			return errs.New(errs.StateMismatch, "cached_findings key "+path+" missing from file_hashes")
		}
	}
	for path, edges := range s.DepGraph {
		if _, ok := s.FileHashes[path]; !ok {
			return errs.New(errs.StateMismatch, "dep_graph key "+path+" missing from file_hashes")
		}
		for _, e := range edges {
			if _, ok := s.FileHashes[e]; !ok {
				return errs.New(errs.StateMismatch, "dep_graph edge "+e+" missing from file_hashes")
			}
		}
	}
	return nil
}
