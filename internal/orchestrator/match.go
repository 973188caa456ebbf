package orchestrator

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vibecheck/vibecheck/internal/contextfilter"
	"github.com/vibecheck/vibecheck/internal/ctxparse"
	"github.com/vibecheck/vibecheck/internal/patterns"
	"github.com/vibecheck/vibecheck/internal/types"
)

// maxScanBytes bounds per-file scanning the way the teacher's cfg.MaxBytes
// does for staged/history/diff scanning; 0 means unbounded.
const defaultMaxScanBytes = 10 * 1024 * 1024

// scanFile reads root/relPath and runs every registered pattern over it
// line by line, the way the teacher's per-provider detectors
// (internal/detectors/aws.go et al.) use bufio.Scanner plus a compiled
// regex — generalized here into one loop over the whole Pattern Registry
// instead of one hand-written function per provider.
func scanFile(root, relPath string, reg *patterns.Registry, maxBytes int64) ([]types.Finding, error) {
	full := filepath.Join(root, relPath)
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}

	var out []types.Finding
	// first-pattern-wins per (category, line) within this file (spec.md §4.H).
	seenCategoryLine := make(map[string]bool)
	compiled := reg.All()

	if fields := structuredFields(relPath, data); fields != nil {
		// Minified JSON or a multi-line YAML scalar loses per-key line
		// numbers under a plain bufio scan; ctxparse recovers them by
		// parsing the document and walking its key/value pairs, so
		// config-file findings still point at the line the secret lives
		// on rather than line 1 or the start of the enclosing block.
		for _, fld := range fields {
			scanLine(fld.Line, fld.Rendered(), relPath, compiled, seenCategoryLine, &out)
		}
		return out, nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		scanLine(line, sc.Text(), relPath, compiled, seenCategoryLine, &out)
	}
	return out, nil
}

// ScanBytes runs every registered pattern over an in-memory blob rather
// than a file on disk, for content that only exists as bytes extracted
// from an archive or container layer. virtualPath is recorded as the
// finding's path verbatim (e.g. "archive.zip::inner/path") so callers
// can tell an extracted member from an ordinary file without a second
// lookup. It shares scanLine/structuredFields with scanFile so extracted
// members are matched by the same patterns and the same context filter
// as files walked directly from the working tree.
func ScanBytes(virtualPath string, data []byte, reg *patterns.Registry) []types.Finding {
	var out []types.Finding
	seenCategoryLine := make(map[string]bool)
	compiled := reg.All()

	if fields := structuredFields(virtualPath, data); fields != nil {
		for _, fld := range fields {
			scanLine(fld.Line, fld.Rendered(), virtualPath, compiled, seenCategoryLine, &out)
		}
		return out
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		scanLine(line, sc.Text(), virtualPath, compiled, seenCategoryLine, &out)
	}
	return out
}

// structuredFields returns ctxparse key/value fields for .json/.yml/.yaml
// files, or nil for any other extension or any file ctxparse can't parse
// (in which case scanFile falls back to its plain line scan).
func structuredFields(relPath string, data []byte) []ctxparse.Field {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".json":
		return ctxparse.JSONFields(data)
	case ".yml", ".yaml":
		return ctxparse.YAMLFields(data)
	default:
		return nil
	}
}

// scanLine runs every compiled pattern against one line of text —
// whether a real source line or a ctxparse-rendered "key: value" field —
// appending accepted Findings to out.
func scanLine(line int, txt, relPath string, compiled []patterns.Compiled, seenCategoryLine map[string]bool, out *[]types.Finding) {
	for _, c := range compiled {
		if hasInlineIgnore(txt, c.ID) {
			continue
		}
		idx := c.Regex.FindAllStringSubmatchIndex(txt, -1)
		if idx == nil {
			continue
		}
		for _, loc := range idx {
			value, col := extractCapture(txt, loc, c.CaptureIndex)
			if !satisfiesPredicate(c.RequireContextPredicate, txt) {
				continue
			}
			m := contextfilter.Match{
				Pattern:  c,
				Path:     relPath,
				Line:     line,
				Column:   col,
				Value:    value,
				LineText: txt,
			}
			f, ok := contextfilter.Apply(m)
			if !ok {
				continue
			}
			key := string(c.Category) + ":" + strconv.Itoa(line)
			if seenCategoryLine[key] {
				continue
			}
			seenCategoryLine[key] = true
			*out = append(*out, f)
		}
	}
}

// extractCapture pulls the value at captureIndex (or the full match when
// captureIndex is 0) out of a FindAllStringSubmatchIndex location, along
// with its 1-based column.
func extractCapture(line string, loc []int, captureIndex int) (value string, column int) {
	group := captureIndex * 2
	if group+1 >= len(loc) || loc[group] < 0 {
		group = 0
	}
	start, end := loc[group], loc[group+1]
	return line[start:end], start + 1
}

func satisfiesPredicate(pred types.ContextPredicate, line string) bool {
	switch pred.Kind {
	case types.PredicateNone:
		return true
	case types.PredicateKeywordAnyOf:
		return containsAnyFold(line, pred.Keywords)
	case types.PredicateNotKeywordAnyOf:
		return !containsAnyFold(line, pred.Keywords)
	default:
		return true
	}
}

// hasInlineIgnore reports whether txt carries a "vibecheck:ignore"
// marker naming this pattern, mirroring the teacher's
// "redactyl:ignore"-plus-provider-substring convention
// (internal/detectors/helpers.go): the marker and a fragment of the
// pattern ID (its first underscore-delimited segment) must both appear
// on the line, so one ignore comment doesn't silently blanket every
// pattern.
func hasInlineIgnore(txt, patternID string) bool {
	if !strings.Contains(txt, "vibecheck:ignore") {
		return false
	}
	frag := patternID
	if i := strings.Index(frag, "_"); i > 0 {
		frag = frag[:i]
	}
	return strings.Contains(strings.ToLower(txt), strings.ToLower(frag))
}

func containsAnyFold(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
