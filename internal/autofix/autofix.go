// Package autofix applies a Finding's SuggestedFix in place and records a
// transaction so `vibecheck fix --rollback <txid>` can undo it. Grounded
// on the teacher's internal/redact package (Replacement{Pattern,Replace}
// applied via a regex substitution, WouldChange as its dry-run twin) and
// cmd/redactyl/fix.go's dry-run/commit-summary CLI ergonomics, generalized
// from "redact a secret by hand-supplied regex" to "apply the
// SuggestedFix a Pattern already carries, with a recorded transaction
// instead of an ad-hoc git commit."
package autofix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vibecheck/vibecheck/internal/types"
)

// Replacement mirrors the teacher's internal/redact.Replacement shape:
// a literal find/replace over one file's exact line text (not a regex
// substitution, since a Finding's RedactedEvidence has already located
// the exact line and column).
type Replacement struct {
	Path    string
	Line    int
	OldText string
	NewText string
}

// FileSnapshot captures a file's content before a transaction touches
// it, so Rollback can restore it verbatim.
type FileSnapshot struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Transaction is the persisted record of one `fix --apply` run.
type Transaction struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshots []FileSnapshot `json:"snapshots"`
	Applied   []Replacement  `json:"applied"`
}

func txPath(root, id string) string {
	return filepath.Join(root, ".vibecheck", "fixes", id+".json")
}

// newTxID derives a transaction id from the clock; callers needing
// determinism in tests construct a Transaction directly instead.
func newTxID(now time.Time) string {
	return "fix-" + now.UTC().Format("20060102T150405.000000000")
}

// PlanFixes builds one Replacement per autofixable, confident-enough
// finding that carries a SuggestedFix. Findings without a usable fix
// are skipped, not errored — `fix` only ever acts on what it can.
func PlanFixes(root string, findings []types.Finding, minConfidence float64) ([]Replacement, error) {
	var out []Replacement
	for _, f := range findings {
		if !f.Autofixable || f.SuggestedFix == "" || f.Confidence < minConfidence {
			continue
		}
		full := filepath.Join(root, f.Path)
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		lines := strings.Split(string(data), "\n")
		if f.Line < 1 || f.Line > len(lines) {
			continue
		}
		old := lines[f.Line-1]
		out = append(out, Replacement{Path: f.Path, Line: f.Line, OldText: old, NewText: f.SuggestedFix})
	}
	return out, nil
}

// Apply writes every planned replacement to disk, snapshotting each
// touched file's prior content into a Transaction persisted under
// root/.vibecheck/fixes/<id>.json for later Rollback.
func Apply(root string, reps []Replacement) (Transaction, error) {
	tx := Transaction{ID: newTxID(time.Now()), Timestamp: time.Now()}
	snapshotted := map[string]bool{}

	byPath := map[string][]Replacement{}
	for _, r := range reps {
		byPath[r.Path] = append(byPath[r.Path], r)
	}

	for path, fileReps := range byPath {
		full := filepath.Join(root, path)
		data, err := os.ReadFile(full)
		if err != nil {
			return tx, fmt.Errorf("read %s: %w", path, err)
		}
		if !snapshotted[path] {
			tx.Snapshots = append(tx.Snapshots, FileSnapshot{Path: path, Content: string(data)})
			snapshotted[path] = true
		}

		lines := strings.Split(string(data), "\n")
		for _, r := range fileReps {
			if r.Line < 1 || r.Line > len(lines) {
				continue
			}
			lines[r.Line-1] = r.NewText
			tx.Applied = append(tx.Applied, r)
		}
		if err := os.WriteFile(full, []byte(strings.Join(lines, "\n")), 0644); err != nil {
			return tx, fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := saveTransaction(root, tx); err != nil {
		return tx, err
	}
	return tx, nil
}

func saveTransaction(root string, tx Transaction) error {
	path := txPath(root, tx.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// LoadTransaction reads a persisted transaction by id.
func LoadTransaction(root, id string) (Transaction, error) {
	var tx Transaction
	data, err := os.ReadFile(txPath(root, id))
	if err != nil {
		return tx, err
	}
	return tx, json.Unmarshal(data, &tx)
}

// Rollback restores every file a transaction touched to its
// pre-transaction snapshot.
func Rollback(root string, tx Transaction) error {
	for _, snap := range tx.Snapshots {
		full := filepath.Join(root, snap.Path)
		if err := os.WriteFile(full, []byte(snap.Content), 0644); err != nil {
			return fmt.Errorf("restore %s: %w", snap.Path, err)
		}
	}
	return nil
}
