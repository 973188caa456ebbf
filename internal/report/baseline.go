package report

import (
	"encoding/json"
	"os"

	"github.com/vibecheck/vibecheck/internal/contextfilter"
	"github.com/vibecheck/vibecheck/internal/types"
)

// Baseline is a recorded scan-result-shaped snapshot: findings present
// in it are suppressed from future output, distinct from the
// fingerprint-shaped internal/allowlist (spec.md's baseline vs.
// allowlist distinction).
type Baseline struct {
	Fingerprints map[string]bool `json:"fingerprints"`
}

// LoadBaseline reads path; a missing file yields an empty, usable
// Baseline rather than an error.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Fingerprints: map[string]bool{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return b, err
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, err
	}
	if b.Fingerprints == nil {
		b.Fingerprints = map[string]bool{}
	}
	return b, nil
}

// SaveBaseline records findings' fingerprints to path.
func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Fingerprints: map[string]bool{}}
	for _, f := range findings {
		b.Fingerprints[contextfilter.FingerprintOf(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// FilterNewFindings drops findings already present in base.
func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		if base.Fingerprints[contextfilter.FingerprintOf(f)] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ShouldFail reports whether any finding meets or exceeds failOn
// ("low"|"medium"|"high"; defaults to "medium" on an unrecognized
// value).
func ShouldFail(findings []types.Finding, failOn string) bool {
	level := map[string]int{"low": 1, "medium": 2, "high": 3}
	threshold := level[failOn]
	if threshold == 0 {
		threshold = 2
	}
	for _, f := range findings {
		if level[string(f.Severity)] >= threshold {
			return true
		}
	}
	return false
}
