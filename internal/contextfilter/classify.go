package contextfilter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vibecheck/vibecheck/internal/types"
)

var (
	reTestPath    = regexp.MustCompile(`(?i)(^|/)(test|tests|__tests__|spec|specs)(/|$)|\.(test|spec)\.[a-z]+$|_test\.[a-z]+$`)
	reExamplePath = regexp.MustCompile(`(?i)(^|/)(example|examples|sample|samples|demo|demos|fixture|fixtures|testdata)(/|$)`)
	reDocPath     = regexp.MustCompile(`(?i)(^|/)(docs?|documentation)(/|$)|\.(md|mdx|rst|adoc)$`)
	reConfigPath  = regexp.MustCompile(`(?i)(^|/)(config|configs|\.env.*|.*\.config\.[a-z]+|.*\.ya?ml|.*\.toml|.*\.ini)$`)
	reDevPath     = regexp.MustCompile(`(?i)(^|/)(dev|development|scripts|tools|local)(/|$)`)
)

// ClassifyFile assigns exactly one FileContext to relPath by path-pattern
// lists (spec.md §4.C): production | development | test | example |
// documentation | configuration | unknown. Checked in an order that lets
// the more specific categories (test, example, docs, config) win before
// falling back to development or production.
func ClassifyFile(relPath string) types.FileContext {
	p := filepath.ToSlash(relPath)
	switch {
	case reTestPath.MatchString(p):
		return types.CtxTest
	case reExamplePath.MatchString(p):
		return types.CtxExample
	case reDocPath.MatchString(p):
		return types.CtxDocumentation
	case reConfigPath.MatchString(p):
		return types.CtxConfiguration
	case reDevPath.MatchString(p):
		return types.CtxDevelopment
	case strings.HasSuffix(p, ".go"), strings.HasSuffix(p, ".ts"), strings.HasSuffix(p, ".tsx"),
		strings.HasSuffix(p, ".js"), strings.HasSuffix(p, ".jsx"), strings.HasSuffix(p, ".py"),
		strings.HasSuffix(p, ".java"), strings.HasSuffix(p, ".rb"):
		return types.CtxProduction
	default:
		return types.CtxUnknown
	}
}

// AdjustSeverity applies the spec.md §4.C severity-adjustment ladder for
// a finding already classified under ctx, given the entropy of its
// captured value.
func AdjustSeverity(sev types.Severity, ctx types.FileContext, entropy float64) types.Severity {
	switch ctx {
	case types.CtxExample:
		if entropy >= 5.0 {
			return sev
		}
		return sev.Downgrade()
	case types.CtxTest:
		if entropy >= 5.0 {
			return sev
		}
		return sev.Downgrade()
	case types.CtxDocumentation:
		return sev.Downgrade().Downgrade()
	case types.CtxProduction:
		if entropy >= 4.5 && sev == types.SevMedium {
			return types.SevHigh
		}
		return sev
	default:
		return sev
	}
}

// ShouldExcludeInTestOrExample reports whether a pattern match should be
// dropped outright because the file is test/example context and the
// pattern is marked ExcludeInTests — EXCEPT live-credential patterns,
// which spec.md §4.C rule 3 says are never skipped by test/example path.
func ShouldExcludeInTestOrExample(ctx types.FileContext, excludeInTests bool) bool {
	if !excludeInTests {
		return false
	}
	return ctx == types.CtxTest || ctx == types.CtxExample
}
