package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vibecheck/vibecheck/internal/types"
)

func sampleFindings() []types.Finding {
	return []types.Finding{
		{PatternID: "aws_key", Path: "b.ts", Line: 5, Severity: types.SevHigh, Category: types.CatCredentials, RedactedEvidence: "AKIA...SLKD"},
		{PatternID: "math_random", Path: "a.ts", Line: 2, Severity: types.SevLow, Category: types.CatFakeFeatures, RedactedEvidence: "****"},
	}
}

func TestPrintTextSortsByPathThenLine(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleFindings(), PrintOptions{NoColor: true})
	out := buf.String()
	if strings.Index(out, "a.ts") > strings.Index(out, "b.ts") {
		t.Fatalf("expected a.ts to sort before b.ts, got:\n%s", out)
	}
}

func TestPrintTextNoColorOmitsANSI(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleFindings(), PrintOptions{NoColor: true})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no ANSI codes with NoColor, got:\n%s", buf.String())
	}
}

func TestPrintTextEmptyFindings(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, nil, PrintOptions{NoColor: true})
	if !strings.Contains(buf.String(), "No findings") {
		t.Fatalf("expected no-findings message, got:\n%s", buf.String())
	}
}

func TestPrintJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, sampleFindings(), PrintOptions{}); err != nil {
		t.Fatalf("PrintJSON: %v", err)
	}
	var out jsonOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Total != 2 || out.High != 1 || out.Low != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}
}

func TestWriteSARIFGroupsRulesByPatternID(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleFindings()); err != nil {
		t.Fatalf("WriteSARIF: %v", err)
	}
	var doc sarifDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(doc.Runs) != 1 || len(doc.Runs[0].Results) != 2 {
		t.Fatalf("expected 1 run with 2 results, got %+v", doc)
	}
	if len(doc.Runs[0].Tool.Driver.Rules) != 2 {
		t.Fatalf("expected 2 distinct rules, got %d", len(doc.Runs[0].Tool.Driver.Rules))
	}
}

func TestRenderEvidenceFallsBackWithoutColor(t *testing.T) {
	f := sampleFindings()[0]
	if got := renderEvidence(f, true); strings.Contains(got, "\x1b[") {
		t.Fatalf("expected plain masked value with noColor, got %q", got)
	}
}

func TestHighlightSnippetFallsBackForUnknownExtension(t *testing.T) {
	line := "plain text with no extension match"
	if got := highlightSnippet(line, "evidence.zzzqqq"); got != line {
		t.Fatalf("expected unchanged line for unmatched lexer, got %q", got)
	}
}

func TestRenderShipBannerIncludesDiagnostics(t *testing.T) {
	out := renderShipBanner(40, types.VerdictBlock, []string{"no routes recorded"}, true)
	if !strings.Contains(out, "BLOCK") || !strings.Contains(out, "no routes recorded") {
		t.Fatalf("expected verdict and diagnostic in banner, got:\n%s", out)
	}
}
