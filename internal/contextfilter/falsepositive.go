package contextfilter

import (
	"regexp"
	"strings"
)

// falsePositiveTokens are substrings that mark a captured value as almost
// certainly a placeholder rather than a real secret (spec.md §4.C rule 1).
var falsePositiveTokens = []string{
	"example", "test", "demo", "placeholder", "changeme", "xxx",
}

var (
	reYourPrefix       = regexp.MustCompile(`(?i)^your[_-]`)
	reSequential       = regexp.MustCompile(`(?i)abc|123`)
	reSingleCharRepeat = regexp.MustCompile(`(.)\1{5,}`)
)

// contextExclusionRules flag a whole line as a non-secret context: type
// annotations, schema-builder calls, doc comments, env interpolation,
// test-harness macros (spec.md §4.C rule 2).
var contextExclusionRules = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\*`),                        // doc comment continuation
	regexp.MustCompile(`^\s*//`),                        // line comment
	regexp.MustCompile(`:\s*(string|number|boolean)\b`), // type annotation
	regexp.MustCompile(`\.(string|number|boolean)\(\)`), // schema builder (zod/yup-style)
	regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_.]*\}`), // env/template interpolation
	regexp.MustCompile(`\b(describe|it|test)\s*\(`),     // test harness macro
}

// IsFalsePositiveValue reports whether value matches one of the
// false-positive token heuristics.
func IsFalsePositiveValue(value string) bool {
	lower := strings.ToLower(value)
	for _, tok := range falsePositiveTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	if reYourPrefix.MatchString(value) {
		return true
	}
	if reSequential.MatchString(lower) {
		return true
	}
	if reSingleCharRepeat.MatchString(value) {
		return true
	}
	return false
}

// IsContextExcludedLine reports whether line matches a context-exclusion
// rule that marks it as structurally unlikely to carry a real secret.
func IsContextExcludedLine(line string) bool {
	for _, re := range contextExclusionRules {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
