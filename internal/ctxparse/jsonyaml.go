package ctxparse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// jsonFieldPattern matches one "key": value pair within a line: a quoted
// key, a colon, and a value that is either a quoted string or a bare
// token running up to the next comma/brace/bracket.
var jsonFieldPattern = regexp.MustCompile(`"([^"]+)"\s*:\s*("(?:[^"\\]|\\.)*"|[^,}\]]+)`)

// Field is one key/value pair and the 1-based line number its value
// appears on — the unit fed back into the Pattern Registry so JSON/YAML
// config files get real per-key line numbers instead of one match per
// physical line.
type Field struct {
	Key   string
	Value string
	Line  int
}

// Rendered renders a Field as "key: value", the synthetic line text the
// Pattern Registry's regexes and require_context_predicate matching run
// against in place of the file's real (often minified or multi-line)
// source line.
func (f Field) Rendered() string { return f.Key + ": " + f.Value }

// JSONFields extracts key/value pairs with approximate line numbers from
// a JSON document. Returns nil if b doesn't parse as JSON.
func JSONFields(b []byte) []Field {
	// encoding/json has no position API, so once we've confirmed b
	// decodes as JSON, we fall back to a per-line scan for line hints.
	var tmp any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil
	}
	var out []Field
	sc := bufio.NewScanner(bytes.NewReader(b))
	line := 0
	for sc.Scan() {
		line++
		t := sc.Text()
		if !strings.Contains(t, ":") || !strings.Contains(t, "\"") {
			continue
		}
		// One line can hold many key/value pairs when the file is
		// minified, so every match on the line gets its own Field
		// rather than just the first.
		for _, m := range jsonFieldPattern.FindAllStringSubmatch(t, -1) {
			val := strings.TrimSpace(m[2])
			out = append(out, Field{Key: m[1], Value: val, Line: line})
		}
	}
	return out
}

// YAMLFields uses yaml.v3 which provides line numbers for nodes; we flatten simple scalars.
func YAMLFields(b []byte) []Field {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil
	}
	var out []Field
	var walk func(n *yaml.Node, path []string)
	walk = func(n *yaml.Node, path []string) {
		switch n.Kind {
		case yaml.DocumentNode:
			for _, c := range n.Content {
				walk(c, path)
			}
		case yaml.MappingNode:
			for i := 0; i < len(n.Content); i += 2 {
				k := n.Content[i]
				v := n.Content[i+1]
				key := k.Value
				walk(v, append(path, key))
			}
		case yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c, path)
			}
		case yaml.ScalarNode:
			if len(path) > 0 {
				out = append(out, Field{Key: strings.Join(path, "."), Value: n.Value, Line: n.Line})
			}
		}
	}
	walk(&root, nil)
	return out
}
