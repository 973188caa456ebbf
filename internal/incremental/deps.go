package incremental

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// extensionTryOrder is the exact resolution order spec.md §4.G mandates
// when resolving a relative import specifier against the known file set.
var extensionTryOrder = []string{
	"", ".ts", ".tsx", ".js", ".jsx",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
}

var (
	reImportFrom = regexp.MustCompile(`import\s+(?:[^'"]*\s+from\s+)?['"](\.[^'"]+)['"]`)
	reRequire    = regexp.MustCompile(`require\(\s*['"](\.[^'"]+)['"]\s*\)`)
)

// ExtractDependencies scans file for relative `import … from '…'` and
// `require('…')` occurrences and resolves each against knownFiles using
// extensionTryOrder. Only relative specifiers (starting with ".") are
// considered dependency edges; bare package imports are not graph edges.
func ExtractDependencies(projectRoot, relPath string, knownFiles map[string]bool) []string {
	full := filepath.Join(projectRoot, relPath)
	f, err := os.Open(full)
	if err != nil {
		return nil
	}
	defer f.Close()

	baseDir := filepath.Dir(relPath)
	seen := make(map[string]bool)
	var out []string

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		for _, m := range reImportFrom.FindAllStringSubmatch(line, -1) {
			addResolved(&out, seen, resolveImport(baseDir, m[1], knownFiles))
		}
		for _, m := range reRequire.FindAllStringSubmatch(line, -1) {
			addResolved(&out, seen, resolveImport(baseDir, m[1], knownFiles))
		}
	}
	return out
}

func addResolved(out *[]string, seen map[string]bool, resolved string) {
	if resolved == "" || seen[resolved] {
		return
	}
	seen[resolved] = true
	*out = append(*out, resolved)
}

// resolveImport tries specifier against every suffix in
// extensionTryOrder, relative to baseDir, returning the first path
// present in knownFiles, or "" if none resolve.
func resolveImport(baseDir, specifier string, knownFiles map[string]bool) string {
	joined := filepath.ToSlash(filepath.Join(baseDir, specifier))
	for _, suffix := range extensionTryOrder {
		candidate := joined + suffix
		candidate = strings.TrimPrefix(candidate, "./")
		if knownFiles[candidate] {
			return candidate
		}
	}
	return ""
}
