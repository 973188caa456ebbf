package report

import (
	"encoding/json"
	"io"

	"github.com/vibecheck/vibecheck/internal/types"
)

type sarifDoc struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex,omitempty"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn,omitempty"`
	Snippet     *sarifSnippet `json:"snippet,omitempty"`
}

type sarifSnippet struct {
	Text string `json:"text"`
}

type sarifRule struct {
	ID        string        `json:"id"`
	ShortDesc *sarifMessage `json:"shortDescription,omitempty"`
	Help      *sarifMessage `json:"help,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

// ToolVersion is stamped into the SARIF driver.version field. Set by
// cmd/vibecheck at build time; left as a plain var since Go code (unlike
// workflow scripts) may legitimately read build-time injected values.
var ToolVersion = "dev"

// WriteSARIF writes findings as SARIF 2.1.0 (spec.md §6 CLI surface).
func WriteSARIF(w io.Writer, findings []types.Finding) error {
	run := sarifRun{Tool: sarifTool{Driver: sarifDriver{Name: "vibecheck", Version: ToolVersion}}}

	ruleIndex := map[string]int{}
	for _, f := range findings {
		id := f.PatternID
		if _, ok := ruleIndex[id]; !ok {
			ruleIndex[id] = len(run.Tool.Driver.Rules)
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:        id,
				ShortDesc: &sarifMessage{Text: string(f.Category) + " finding"},
				Help:      &sarifMessage{Text: "Review the redacted evidence and apply the suggested fix if present."},
			})
		}
	}

	for _, f := range findings {
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.PatternID,
			RuleIndex: ruleIndex[f.PatternID],
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: string(f.Category) + ": " + f.RedactedEvidence},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Column,
						Snippet:     &sarifSnippet{Text: f.RedactedEvidence},
					},
				},
			}},
		})
	}

	doc := sarifDoc{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
