package contextfilter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vibecheck/vibecheck/internal/patterns"
	"github.com/vibecheck/vibecheck/internal/types"
)

// Match is a raw Pattern Registry hit before the entropy/context pass:
// one regex match on one line of one file.
type Match struct {
	Pattern  patterns.Compiled
	Path     string
	Line     int
	Column   int
	Value    string // captured secret, or the full match when CaptureIndex == 0
	LineText string
}

// Apply runs the full spec.md §4.C pipeline over a raw match and either
// returns a Finding and true, or (zero Finding, false) when the match is
// rejected as a false positive or context-excluded.
func Apply(m Match) (types.Finding, bool) {
	p := m.Pattern.Pattern

	if IsFalsePositiveValue(m.Value) {
		return types.Finding{}, false
	}
	if IsContextExcludedLine(m.LineText) {
		return types.Finding{}, false
	}

	ctx := ClassifyFile(m.Path)
	if ShouldExcludeInTestOrExample(ctx, p.ExcludeInTests) {
		return types.Finding{}, false
	}

	ent := Entropy(m.Value)
	if ent < p.MinEntropy {
		return types.Finding{}, false
	}

	sev := AdjustSeverity(p.Severity, ctx, ent)
	redacted := Redact(m.Value)

	f := types.Finding{
		ID:               Fingerprint(p.ID, m.Path, m.Line, redacted)[:16],
		PatternID:        p.ID,
		Path:             m.Path,
		Line:             m.Line,
		Column:           m.Column,
		Severity:         sev,
		Category:         p.Category,
		Confidence:       float64(p.ConfidenceBase) / 100.0,
		RedactedEvidence: redacted,
		SuggestedFix:     p.DefaultFix,
	}
	return f, true
}

// Fingerprint builds the full 64-hex-char stable identity of a finding:
// SHA-256(pattern_id || ':' || path || ':' || line || ':' || redacted_value)
// (spec.md §3/§6). Finding.ID truncates this to 16 chars; allowlist
// entries use the full 64.
func Fingerprint(patternID, path string, line int, redacted string) string {
	s := fmt.Sprintf("%s:%s:%d:%s", patternID, path, line, redacted)
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// FingerprintOf recomputes a Finding's full 64-hex allowlist fingerprint
// from its own fields.
func FingerprintOf(f types.Finding) string {
	return Fingerprint(f.PatternID, f.Path, f.Line, f.RedactedEvidence)
}

// Redact applies spec.md §3's redaction rule: values longer than 8 chars
// show first min(4, len/4) and last min(4, len/4) chars separated by
// "..."; shorter values are fully masked.
func Redact(value string) string {
	n := len(value)
	if n <= 8 {
		return maskAll(n)
	}
	keep := n / 4
	if keep > 4 {
		keep = 4
	}
	if keep == 0 {
		return maskAll(n)
	}
	return value[:keep] + "..." + value[n-keep:]
}

func maskAll(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = '*'
	}
	return string(out)
}
