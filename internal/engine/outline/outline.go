package outline

import (
	"sort"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codelens/internal/engine/parser"
	"codelens/internal/shared/util"
)

// DefaultMaxDepth bounds tree recursion. Pathologically nested input degrades
// to a partial outline instead of exhausting the call stack.
const DefaultMaxDepth = 512

// Decl pairs an outline entry with the node whose byte range backs it. For
// export-wrapped declarations the node is the outer export statement, so both
// the reported start line and any later extraction include the wrapper.
type Decl struct {
	Entry Entry
	Node  *sitter.Node
}

// Extract walks the tree in pre-order and returns the file outline sorted by
// start line (stable for ties).
func Extract(root *sitter.Node, source []byte, language string) []Entry {
	entries, _ := ExtractWithDepth(root, source, language, DefaultMaxDepth)
	return entries
}

// ExtractWithDepth is Extract with an explicit recursion cap. The second
// return value reports whether the cap truncated the walk.
func ExtractWithDepth(root *sitter.Node, source []byte, language string, maxDepth int) ([]Entry, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	w := &walker{source: source, family: Family(language), maxDepth: maxDepth}
	w.walk(root, 0, 0)
	sort.SliceStable(w.entries, func(i, j int) bool {
		return w.entries[i].StartLine < w.entries[j].StartLine
	})
	return w.entries, w.truncated
}

// Declarations classifies a single node, returning every declaration it
// introduces. Most nodes yield zero or one; multi-spec statements (Go type
// blocks, multi-declarator variable statements) may yield several.
func Declarations(node *sitter.Node, source []byte, language string) []Decl {
	return declarationsAt(node, source, Family(language), 0)
}

type walker struct {
	source    []byte
	family    string
	maxDepth  int
	entries   []Entry
	truncated bool
}

func (w *walker) walk(node *sitter.Node, declDepth, nodeDepth int) {
	if node == nil {
		return
	}
	if nodeDepth >= w.maxDepth {
		w.truncated = true
		return
	}

	decls := declarationsAt(node, w.source, w.family, declDepth)
	for _, d := range decls {
		w.entries = append(w.entries, d.Entry)
	}

	childDepth := declDepth
	if len(decls) > 0 {
		childDepth++
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i), childDepth, nodeDepth+1)
	}
}

func declarationsAt(node *sitter.Node, source []byte, family string, depth int) []Decl {
	if node == nil || wrappedByHandledParent(node) {
		return nil
	}

	kind := node.Kind()

	switch {
	case (family == "javascript" || family == "typescript") && kind == "export_statement":
		return exportDecls(node, source, family, depth)
	case (family == "javascript" || family == "typescript") &&
		(kind == "lexical_declaration" || kind == "variable_declaration"):
		return variableDecls(node, source, depth)
	case family == "go" && kind == "type_declaration":
		return goTypeDecls(node, source, depth)
	case family == "go" && (kind == "const_declaration" || kind == "var_declaration"):
		return goFuncValueDecls(node, source, depth)
	case family == "python" && kind == "assignment":
		return pythonLambdaDecls(node, source, depth)
	}

	table := declKindTables[family]
	declKind, ok := table[kind]
	if !ok {
		return nil
	}

	name := parser.NodeText(parser.ResolveNamedChild(node, "name"), source)
	if name == "" && kind == "impl_item" {
		name = parser.NodeText(node.ChildByFieldName("type"), source)
	}
	if name == "" {
		return nil
	}

	if family == "python" && declKind == KindFunction && insidePythonClass(node) {
		declKind = KindMethod
	}

	return []Decl{{
		Entry: Entry{
			Kind:      declKind,
			Name:      name,
			StartLine: parser.StartLine(node),
			EndLine:   parser.EndLine(node),
			Signature: signature(node, source),
			Exported:  exportedName(family, name, node, source),
			Depth:     depth,
		},
		Node: node,
	}}
}

// wrappedByHandledParent suppresses nodes that are emitted by a structural
// handler higher in the tree, so the walk never double-counts them.
func wrappedByHandledParent(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "export_statement":
		decl := parent.ChildByFieldName("declaration")
		return decl != nil && decl.Id() == node.Id()
	}
	return false
}

// exportDecls unwraps an export statement: the inner declaration is emitted
// with exported=true and the outer statement's span, so exported arrow
// functions still report a correct location.
func exportDecls(node *sitter.Node, source []byte, family string, depth int) []Decl {
	inner := node.ChildByFieldName("declaration")
	if inner == nil {
		return nil
	}

	var decls []Decl
	switch inner.Kind() {
	case "lexical_declaration", "variable_declaration":
		decls = variableDecls(inner, source, depth)
	default:
		decls = declarationsFromTable(inner, source, family, depth)
	}

	for i := range decls {
		decls[i].Entry.Exported = true
		decls[i].Entry.StartLine = parser.StartLine(node)
		decls[i].Entry.EndLine = parser.EndLine(node)
		decls[i].Entry.Signature = signature(node, source)
		decls[i].Node = node
	}
	return decls
}

// declarationsFromTable classifies a node against the plain dispatch table,
// bypassing the wrapped-parent suppression (used for export unwrapping).
func declarationsFromTable(node *sitter.Node, source []byte, family string, depth int) []Decl {
	table := declKindTables[family]
	declKind, ok := table[node.Kind()]
	if !ok {
		return nil
	}
	name := parser.NodeText(parser.ResolveNamedChild(node, "name"), source)
	if name == "" {
		return nil
	}
	return []Decl{{
		Entry: Entry{
			Kind:      declKind,
			Name:      name,
			StartLine: parser.StartLine(node),
			EndLine:   parser.EndLine(node),
			Signature: signature(node, source),
			Depth:     depth,
		},
		Node: node,
	}}
}

// variableDecls emits entries for variable statements whose initializer is a
// function-like expression. Plain data bindings are not declarations for
// outline purposes.
func variableDecls(node *sitter.Node, source []byte, depth int) []Decl {
	var decls []Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		declarator := node.Child(i)
		if declarator == nil || declarator.Kind() != "variable_declarator" {
			continue
		}
		value := declarator.ChildByFieldName("value")
		if value == nil {
			continue
		}
		style, ok := functionValueKinds[value.Kind()]
		if !ok {
			continue
		}
		name := parser.NodeText(declarator.ChildByFieldName("name"), source)
		if name == "" {
			continue
		}
		decls = append(decls, Decl{
			Entry: Entry{
				Kind:      KindFunction,
				Name:      name,
				StartLine: parser.StartLine(node),
				EndLine:   parser.EndLine(node),
				Signature: signature(node, source),
				Style:     style,
				Depth:     depth,
			},
			Node: node,
		})
	}
	return decls
}

func goTypeDecls(node *sitter.Node, source []byte, depth int) []Decl {
	var decls []Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec == nil {
			continue
		}
		switch spec.Kind() {
		case "type_spec", "type_alias":
		default:
			continue
		}
		name := parser.NodeText(parser.ResolveNamedChild(spec, "name"), source)
		if name == "" {
			continue
		}
		declKind := KindType
		if typeNode := spec.ChildByFieldName("type"); typeNode != nil && typeNode.Kind() == "interface_type" {
			declKind = KindInterface
		}
		decls = append(decls, Decl{
			Entry: Entry{
				Kind:      declKind,
				Name:      name,
				StartLine: parser.StartLine(spec),
				EndLine:   parser.EndLine(spec),
				Signature: signature(spec, source),
				Exported:  isUpperExported(name),
				Depth:     depth,
			},
			Node: spec,
		})
	}
	return decls
}

// goFuncValueDecls picks up `var handler = func(...) {...}` style bindings.
func goFuncValueDecls(node *sitter.Node, source []byte, depth int) []Decl {
	var decls []Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec == nil {
			continue
		}
		switch spec.Kind() {
		case "const_spec", "var_spec":
		default:
			continue
		}
		value := spec.ChildByFieldName("value")
		if value == nil || !containsFuncLiteral(value) {
			continue
		}
		name := parser.NodeText(parser.ResolveNamedChild(spec, "name"), source)
		if name == "" {
			continue
		}
		decls = append(decls, Decl{
			Entry: Entry{
				Kind:      KindFunction,
				Name:      name,
				StartLine: parser.StartLine(node),
				EndLine:   parser.EndLine(node),
				Signature: signature(node, source),
				Style:     "default",
				Exported:  isUpperExported(name),
				Depth:     depth,
			},
			Node: node,
		})
	}
	return decls
}

func containsFuncLiteral(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	if node.Kind() == "func_literal" {
		return true
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == "func_literal" {
			return true
		}
	}
	return false
}

func pythonLambdaDecls(node *sitter.Node, source []byte, depth int) []Decl {
	right := node.ChildByFieldName("right")
	if right == nil || right.Kind() != "lambda" {
		return nil
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return nil
	}
	name := parser.NodeText(left, source)
	if name == "" {
		return nil
	}
	return []Decl{{
		Entry: Entry{
			Kind:      KindFunction,
			Name:      name,
			StartLine: parser.StartLine(node),
			EndLine:   parser.EndLine(node),
			Signature: signature(node, source),
			Style:     "default",
			Exported:  !strings.HasPrefix(name, "_"),
			Depth:     depth,
		},
		Node: node,
	}}
}

// insidePythonClass reports whether a def sits directly in a class body
// (possibly behind a decorator), which makes it a method.
func insidePythonClass(node *sitter.Node) bool {
	parent := node.Parent()
	if parent != nil && parent.Kind() == "decorated_definition" {
		parent = parent.Parent()
	}
	if parent == nil || parent.Kind() != "block" {
		return false
	}
	grand := parent.Parent()
	return grand != nil && grand.Kind() == "class_definition"
}

func signature(node *sitter.Node, source []byte) string {
	line := strings.TrimSpace(util.FirstLine(parser.RawNodeText(node, source)))
	line = strings.TrimSpace(strings.TrimSuffix(line, "{"))
	if runes := []rune(line); len(runes) > signatureLimit {
		line = string(runes[:signatureLimit])
	}
	return line
}

func exportedName(family, name string, node *sitter.Node, source []byte) bool {
	switch family {
	case "go":
		return isUpperExported(name)
	case "python":
		return !strings.HasPrefix(name, "_")
	case "java":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "modifiers" {
				return strings.Contains(parser.NodeText(child, source), "public")
			}
		}
		return false
	case "rust":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "visibility_modifier" {
				return true
			}
		}
		return false
	}
	return false
}

func isUpperExported(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}
