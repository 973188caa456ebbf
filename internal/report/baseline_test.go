package report

import (
	"path/filepath"
	"testing"

	"github.com/vibecheck/vibecheck/internal/types"
)

func TestLoadBaselineMissingFileYieldsEmptyUsableBaseline(t *testing.T) {
	b, err := LoadBaseline(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadBaseline: %v", err)
	}
	if b.Fingerprints == nil || len(b.Fingerprints) != 0 {
		t.Fatalf("expected empty usable baseline, got %+v", b)
	}
}

func TestSaveThenLoadBaselineRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	findings := sampleFindings()
	if err := SaveBaseline(path, findings); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	b, err := LoadBaseline(path)
	if err != nil {
		t.Fatalf("LoadBaseline: %v", err)
	}
	if len(b.Fingerprints) != len(findings) {
		t.Fatalf("expected %d fingerprints, got %d", len(findings), len(b.Fingerprints))
	}
}

func TestFilterNewFindingsDropsBaselined(t *testing.T) {
	findings := sampleFindings()
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := SaveBaseline(path, findings[:1]); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	b, err := LoadBaseline(path)
	if err != nil {
		t.Fatalf("LoadBaseline: %v", err)
	}
	out := FilterNewFindings(findings, b)
	if len(out) != 1 || out[0].Path != findings[1].Path {
		t.Fatalf("expected only the un-baselined finding to remain, got %+v", out)
	}
}

func TestShouldFailRespectsThreshold(t *testing.T) {
	findings := []types.Finding{{Severity: types.SevLow}}
	if ShouldFail(findings, "medium") {
		t.Fatalf("expected low-severity finding not to trip a medium threshold")
	}
	if !ShouldFail(findings, "low") {
		t.Fatalf("expected low-severity finding to trip a low threshold")
	}
}

func TestShouldFailDefaultsToMediumForUnrecognizedValue(t *testing.T) {
	findings := []types.Finding{{Severity: types.SevMedium}}
	if !ShouldFail(findings, "bogus") {
		t.Fatalf("expected unrecognized failOn to default to medium threshold")
	}
}
