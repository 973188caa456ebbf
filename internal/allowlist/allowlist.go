// Package allowlist implements spec.md's fingerprint allowlist: a plain
// text file of SHA-256 fingerprints (one per line, '#' comments) that
// suppresses matching Findings from future scan output. Grounded on the
// teacher's internal/files/ignore.go idempotent-append-file pattern,
// generalized from a .gitignore entry to an allowlist fingerprint line.
package allowlist

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/vibecheck/vibecheck/internal/contextfilter"
	"github.com/vibecheck/vibecheck/internal/types"
)

// List is a loaded set of allowlisted fingerprints, matched
// case-insensitively per spec.md §3.
type List struct {
	fingerprints map[string]bool
}

// Load reads path (one fingerprint per line, blank lines and '#'
// comments ignored). A missing file yields an empty, usable List rather
// than an error, mirroring the truthpack store's best-effort reads.
func Load(path string) (*List, error) {
	l := &List{fingerprints: make(map[string]bool)}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l.fingerprints[strings.ToLower(line)] = true
	}
	return l, sc.Err()
}

// Contains reports whether fingerprint is allowlisted.
func (l *List) Contains(fingerprint string) bool {
	return l.fingerprints[strings.ToLower(fingerprint)]
}

// Allows reports whether f's own recomputed fingerprint is allowlisted.
func (l *List) Allows(f types.Finding) bool {
	return l.Contains(contextfilter.FingerprintOf(f))
}

// Filter returns findings with every allowlisted entry removed,
// preserving order (P9: allowlisting one finding preserves all others).
func (l *List) Filter(findings []types.Finding) []types.Finding {
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		if l.Allows(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Add appends fingerprint to path, creating the file if needed and
// skipping the write if the fingerprint is already present (idempotent,
// same as the teacher's AppendIgnore).
func Add(path, fingerprint string) error {
	fingerprint = strings.ToLower(strings.TrimSpace(fingerprint))
	existing, err := Load(path)
	if err != nil {
		return err
	}
	if existing.Contains(fingerprint) {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(fingerprint + "\n")
	return err
}
