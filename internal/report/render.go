// Package report is the ambient CLI rendering layer: table/text/JSON/
// SARIF findings output plus the Ship Score verdict banner. Grounded on
// internal/report/render.go (text/table summary-footer style),
// internal/report/sarif.go (SARIF 2.1.0 writer), internal/report/
// baseline.go (scan-result baseline filtering), and internal/tui/
// model.go's chroma/lipgloss usage, generalized from an interactive TUI
// widget into one-shot CLI output (the teacher's bubbletea event loop
// itself is out of scope — spec.md's Non-goals exclude interactive CLI
// prompts).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/vibecheck/vibecheck/internal/types"
)

// PrintOptions controls table/text rendering and the summary footer.
type PrintOptions struct {
	NoColor       bool
	Duration      time.Duration
	FilesScanned  int
	TotalFiles    int
	TotalFindings int // before baseline/allowlist filtering
}

func sortFindings(findings []types.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path == findings[j].Path {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Path < findings[j].Path
	})
}

func severityCounts(findings []types.Finding) (high, med, low int) {
	for _, f := range findings {
		switch f.Severity {
		case types.SevHigh:
			high++
		case types.SevMedium:
			med++
		default:
			low++
		}
	}
	return
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	high, med, low := severityCounts(findings)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d)\n", len(findings), high, med, low)
	if opts.TotalFindings > 0 && opts.TotalFindings > len(findings) {
		fmt.Fprintf(w, "Suppressed by baseline/allowlist: %d\n", opts.TotalFindings-len(findings))
	}
	if opts.TotalFiles > 0 && opts.TotalFiles > opts.FilesScanned {
		fmt.Fprintf(w, "Files skipped (cached): %d\n", opts.TotalFiles-opts.FilesScanned)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %s\n", opts.Duration.Round(time.Millisecond))
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
}

func colorSeverity(s types.Severity, noColor bool) string {
	if noColor {
		return string(s)
	}
	switch s {
	case types.SevHigh:
		return color.New(color.FgRed).Sprint(s)
	case types.SevMedium:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgCyan).Sprint(s)
	}
}

func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// renderEvidence masks then, unless color is suppressed, syntax-highlights
// the redacted evidence for display.
func renderEvidence(f types.Finding, noColor bool) string {
	masked := maskValue(f.RedactedEvidence)
	if noColor {
		return masked
	}
	return highlightSnippet(masked, f.Path)
}

// PrintText renders findings as plain columnar text with a summary
// footer.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings ✅")
	} else {
		maxCat := 8
		for _, f := range findings {
			if l := len(string(f.Category)); l > maxCat {
				maxCat = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			sev := colorSeverity(f.Severity, opts.NoColor)
			fmt.Fprintf(w, "%-6s %-*s %s:%d  %s\n", sev, maxCat, f.Category, f.Path, f.Line, renderEvidence(f, opts.NoColor))
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings as a tablewriter table with a summary
// footer.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Severity", "Category", "File", "Line", "Evidence")
		for _, f := range findings {
			_ = table.Append(
				colorSeverity(f.Severity, opts.NoColor),
				string(f.Category),
				f.Path,
				strconv.Itoa(f.Line),
				renderEvidence(f, opts.NoColor),
			)
		}
		_ = table.Render()
	}
	printFooter(w, findings, opts)
}

// jsonOutput is the stable --json shape (spec.md §6): findings plus the
// summary counts PrintText/PrintTable fold into their footer.
type jsonOutput struct {
	Findings     []types.Finding `json:"findings"`
	Total        int             `json:"total"`
	High         int             `json:"high"`
	Medium       int             `json:"medium"`
	Low          int             `json:"low"`
	FilesScanned int             `json:"files_scanned,omitempty"`
	DurationMs   int64           `json:"duration_ms,omitempty"`
}

// PrintJSON renders findings as the stable machine-readable --json shape.
func PrintJSON(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	sortFindings(findings)
	high, med, low := severityCounts(findings)
	out := jsonOutput{
		Findings:     findings,
		Total:        len(findings),
		High:         high,
		Medium:       med,
		Low:          low,
		FilesScanned: opts.FilesScanned,
		DurationMs:   opts.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// PrintShipBanner renders the Ship Score verdict as a styled box via
// lipgloss, matching internal/tui/model.go's border/color styling
// conventions but as one-shot CLI output rather than a live widget.
func PrintShipBanner(w io.Writer, score int, verdict types.ShipVerdict, diagnostics []string, noColor bool) {
	banner := renderShipBanner(score, verdict, diagnostics, noColor)
	fmt.Fprintln(w, banner)
}

// HumanBytes formats a byte count the way report output presents cache
// sizes and scan throughput — grounded on go-humanize's SI-style output,
// the natural idiomatic-Go substitute for the teacher's bare
// division-by-1024 byte formatting.
func HumanBytes(n uint64) string {
	return humanize.Bytes(n)
}

// HumanDuration formats a duration as "3 seconds ago"-style relative
// text when used for "scanned N ago" style summaries.
func HumanDuration(d time.Duration) string {
	return humanize.RelTime(time.Now().Add(-d), time.Now(), "", "")
}
