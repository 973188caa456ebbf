// Package fingerprint implements component A: enumerating files under
// include/exclude globs and computing stable content fingerprints.
// Grounded on internal/engine/walk.go and the allowedByGlobs/
// parseGlobsList/matchAnyGlob helpers in internal/engine/engine.go of the
// teacher, generalized into a standalone walker other components can
// call without pulling in scan orchestration.
package fingerprint

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are the directories/patterns spec.md §4.A requires by default.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/.next/**",
	"**/coverage/**",
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
	"**/*.min.*",
	"**/*.bundle.*",
}

// Globs bundles the include/exclude glob lists a walk is parameterized by.
type Globs struct {
	Include         []string
	Exclude         []string
	DefaultExcludes bool
}

// Walk enumerates files under root, returning relative paths in a
// deterministic (lexicographically sorted) order with duplicates removed.
func Walk(root string, g Globs) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	excludes := g.Exclude
	if g.DefaultExcludes {
		excludes = append(append([]string{}, DefaultExcludes...), excludes...)
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best-effort: skip unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !Allowed(rel, g.Include, excludes) {
			return nil
		}
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Allowed returns true if relPath survives the include (positive filter,
// if non-empty) and exclude (subtractive, applied last) glob lists.
func Allowed(relPath string, includes, excludes []string) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	if len(includes) > 0 && !matchAny(rp, expand(includes)) {
		return false
	}
	if len(excludes) > 0 && matchAny(rp, expand(excludes)) {
		return false
	}
	return true
}

func matchAny(path string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// expand adds a prefix-trimmed variant of each glob so patterns like
// "**/*.go" also match top-level files, mirroring the teacher's
// trimGlobPrefix behavior.
func expand(globs []string) []string {
	out := make([]string, 0, len(globs)*2)
	for _, p := range globs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p, trimPrefix(p))
	}
	return out
}

func trimPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}

// ParseGlobList splits a comma-separated glob string the way CLI flags
// present it (teacher's parseGlobsList).
func ParseGlobList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
