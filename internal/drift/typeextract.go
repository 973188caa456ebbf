package drift

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/vibecheck/vibecheck/internal/types"
)

// tsParserPool mirrors the teacher's TreeSitterParser.tsPool: parsers are
// not thread-safe, so each goroutine borrows one from a pool instead of
// sharing a single *sitter.Parser.
var tsParserPool = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(typescript.GetLanguage())
		return p
	},
}

type liveType struct {
	name   string
	fields []string
}

// extractLiveTypes parses every .ts/.tsx file in the candidate set and
// collects `interface X { ... }` and `type X = { ... }` field-name lists
// via tree-sitter, the real AST the teacher's TreeSitterParser reaches
// for instead of a regex approximation.
func extractLiveTypes(ctx context.Context, root string, files []string, maxBytes int64) map[string]liveType {
	out := make(map[string]liveType)
	for _, relPath := range files {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		if !strings.HasSuffix(relPath, ".ts") && !strings.HasSuffix(relPath, ".tsx") {
			continue
		}
		data, ok := readCapped(root, relPath, maxBytes)
		if !ok {
			continue
		}
		for name, lt := range parseTSTypes(ctx, data) {
			out[name] = lt
		}
	}
	return out
}

func parseTSTypes(ctx context.Context, content []byte) map[string]liveType {
	parserObj := tsParserPool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return nil
	}
	defer tsParserPool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	out := make(map[string]liveType)
	walkTypeNodes(tree.RootNode(), content, out)
	return out
}

func walkTypeNodes(node *sitter.Node, content []byte, out map[string]liveType) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "interface_declaration":
		if lt := extractInterface(node, content); lt != nil {
			out[lt.name] = *lt
		}
	case "type_alias_declaration":
		if lt := extractTypeAlias(node, content); lt != nil {
			out[lt.name] = *lt
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTypeNodes(node.Child(i), content, out)
	}
}

func extractInterface(node *sitter.Node, content []byte) *liveType {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, content)
	body := node.ChildByFieldName("body")
	return &liveType{name: name, fields: extractObjectTypeFields(body, content)}
}

func extractTypeAlias(node *sitter.Node, content []byte) *liveType {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, content)
	valueNode := node.ChildByFieldName("value")
	return &liveType{name: name, fields: extractObjectTypeFields(valueNode, content)}
}

// extractObjectTypeFields walks an `object_type` node's direct
// `property_signature` children for their field names.
func extractObjectTypeFields(node *sitter.Node, content []byte) []string {
	if node == nil {
		return nil
	}
	var fields []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "property_signature" {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				fields = append(fields, nodeText(nameNode, content))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return fields
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

// detectTypeDrift implements spec.md §4.J's type drift rules: field
// removal from a truthpack-declared type is high severity, addition is low.
// The truthpack's contracts record carries each type's last-known field
// schema as a newline-joined field list in ContractType.Schema.
func detectTypeDrift(ctx context.Context, root string, files []string, maxBytes int64, rec types.ContractsRecord) []types.DriftItem {
	live := extractLiveTypes(ctx, root, files, maxBytes)

	var items []types.DriftItem
	for _, ct := range rec.Types {
		lt, existed := live[ct.Name]
		if !existed {
			continue
		}
		truthFields := splitSchemaFields(ct.Schema)
		liveSet := make(map[string]bool, len(lt.fields))
		for _, f := range lt.fields {
			liveSet[f] = true
		}
		for _, f := range truthFields {
			if !liveSet[f] {
				items = append(items, types.DriftItem{
					ChangeType:     types.DriftRemoved,
					Category:       types.DriftType,
					Identifier:     ct.Name + "." + f,
					Severity:       types.SevHigh,
					TruthpackValue: f,
				})
			}
		}
		truthSet := make(map[string]bool, len(truthFields))
		for _, f := range truthFields {
			truthSet[f] = true
		}
		for _, f := range lt.fields {
			if !truthSet[f] {
				items = append(items, types.DriftItem{
					ChangeType:    types.DriftAdded,
					Category:      types.DriftType,
					Identifier:    ct.Name + "." + f,
					Severity:      types.SevLow,
					CodebaseValue: f,
				})
			}
		}
	}
	return items
}

func splitSchemaFields(schema string) []string {
	if schema == "" {
		return nil
	}
	parts := strings.Split(schema, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
