package classify

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codelens/internal/engine/fallback"
	"codelens/internal/engine/outline"
	"codelens/internal/engine/parser"
)

// Classification labels what role a search hit plays at its location.
type Classification string

const (
	Definition Classification = "definition"
	Usage      Classification = "usage"
	Import     Classification = "import"
	Comment    Classification = "comment"
	String     Classification = "string"
	Unknown    Classification = "unknown"
)

// Hit is one raw search occurrence. Line and Column are 1-based.
type Hit struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Content string `json:"content"`
}

// ClassifiedHit is a hit with its resolved classification.
type ClassifiedHit struct {
	Hit
	Classification Classification `json:"classification"`
}

// Classify resolves a hit through an ordered decision list: whole-line
// comment, import statement, string-literal-only occurrence, tree lookup at
// the hit position, and finally the regex definition patterns. Anything left
// is a usage. root may be nil when no tree is available; the textual checks
// and regex patterns still apply.
func Classify(hit Hit, pattern, language string, root *sitter.Node) Classification {
	trimmed := strings.TrimSpace(hit.Content)

	if fallback.IsCommentLine(trimmed, language) {
		return Comment
	}
	if isImportLine(trimmed, language) {
		return Import
	}
	if pattern != "" && stringOnly(hit.Content, pattern) {
		return String
	}

	if root != nil && hit.Line > 0 && hit.Column > 0 {
		if c, ok := astClassification(root, language, uint(hit.Line-1), uint(hit.Column-1)); ok {
			return c
		}
	}

	if fallback.IsDefinitionLine(trimmed, language) {
		return Definition
	}
	return Usage
}

// ClassifyAll maps Classify over a batch of hits against one file's tree.
func ClassifyAll(hits []Hit, pattern, language string, root *sitter.Node) []ClassifiedHit {
	out := make([]ClassifiedHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, ClassifiedHit{
			Hit:            h,
			Classification: Classify(h, pattern, language, root),
		})
	}
	return out
}

// importPrefixes detect import statements per language. Checked against the
// trimmed line.
var importPrefixes = map[string][]string{
	"javascript": {"import ", "import{", "export * from", "export {"},
	"typescript": {"import ", "import{", "export * from", "export {"},
	"tsx":        {"import ", "import{", "export * from", "export {"},
	"python":     {"import ", "from "},
	"go":         {"import "},
	"java":       {"import "},
	"rust":       {"use ", "extern crate "},
	"c":          {"#include"},
	"cpp":        {"#include", "using namespace "},
	"php":        {"use ", "require ", "require_once", "include ", "include_once"},
	"ruby":       {"require ", "require_relative ", "load "},
}

func isImportLine(trimmed, language string) bool {
	for _, prefix := range importPrefixes[language] {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	// javascript-family dynamic require
	switch language {
	case "javascript", "typescript", "tsx":
		if strings.Contains(trimmed, "require(") &&
			(strings.HasPrefix(trimmed, "const ") || strings.HasPrefix(trimmed, "let ") ||
				strings.HasPrefix(trimmed, "var ")) {
			return true
		}
	}
	return false
}

// stringOnly reports whether every occurrence of pattern on the line falls
// inside a quoted region. Lines without the pattern report false.
func stringOnly(line, pattern string) bool {
	regions := quotedRegions(line)
	found := false
	for idx := strings.Index(line, pattern); idx >= 0; {
		found = true
		if !insideRegion(regions, idx, idx+len(pattern)) {
			return false
		}
		next := strings.Index(line[idx+1:], pattern)
		if next < 0 {
			break
		}
		idx += 1 + next
	}
	return found
}

type region struct{ start, end int }

// quotedRegions finds [start, end) spans covered by ', " or ` quotes, with
// backslash escape handling. An unterminated quote runs to end of line.
func quotedRegions(line string) []region {
	var regions []region
	var quote byte
	start := -1
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && quote != 0 {
			i++
			continue
		}
		switch {
		case quote == 0 && (c == '"' || c == '\'' || c == '`'):
			quote = c
			start = i
		case quote != 0 && c == quote:
			regions = append(regions, region{start, i + 1})
			quote = 0
		}
	}
	if quote != 0 {
		regions = append(regions, region{start, len(line)})
	}
	return regions
}

func insideRegion(regions []region, start, end int) bool {
	for _, r := range regions {
		if start >= r.start && end <= r.end {
			return true
		}
	}
	return false
}

// Node kinds that settle a classification on their own, across grammars.
var commentKinds = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

var stringKinds = map[string]bool{
	"string":                     true,
	"string_literal":             true,
	"string_fragment":            true,
	"string_content":             true,
	"template_string":            true,
	"interpreted_string_literal": true,
	"raw_string_literal":         true,
	"char_literal":               true,
	"character_literal":          true,
}

var importKinds = map[string]bool{
	"import_statement":      true,
	"import_declaration":    true,
	"import_from_statement": true,
	"import_spec":           true,
	"use_declaration":       true,
	"preproc_include":       true,
}

var callKinds = map[string]bool{
	"call_expression":   true,
	"call":              true,
	"method_invocation": true,
	"macro_invocation":  true,
}

// definitionNameKinds are binding sites the outline dispatch tables do not
// list directly; the bound identifier sits in their "name" (or "left") field.
var definitionNameKinds = map[string]bool{
	"variable_declarator": true,
	"type_spec":           true,
	"type_alias":          true,
	"const_spec":          true,
	"var_spec":            true,
}

const ancestorLimit = 16

// astClassification resolves the node at (row, col) and walks its ancestors
// for a conclusive kind. A hit is a definition only when the identifier IS
// the declaration's name, not merely inside its body.
func astClassification(root *sitter.Node, language string, row, col uint) (Classification, bool) {
	ident := parser.DescendantAt(root, row, col)
	if ident == nil {
		return Unknown, false
	}

	table := outline.TableFor(language)
	cur := ident
	for i := 0; cur != nil && i < ancestorLimit; i++ {
		kind := cur.Kind()
		switch {
		case commentKinds[kind]:
			return Comment, true
		case stringKinds[kind]:
			return String, true
		case importKinds[kind]:
			return Import, true
		case definitionNameKinds[kind]:
			if coversByField(cur, "name", ident) {
				return Definition, true
			}
		case kind == "assignment" && outline.Family(language) == "python":
			if coversByField(cur, "left", ident) {
				return Definition, true
			}
		case callKinds[kind]:
			if coversByField(cur, "function", ident) || coversByField(cur, "name", ident) {
				return Usage, true
			}
		default:
			if table != nil {
				if _, ok := table[kind]; ok {
					if coversByField(cur, "name", ident) {
						return Definition, true
					}
					// Inside a declaration body without being its name:
					// nothing conclusive above this point.
					return Usage, true
				}
			}
		}
		cur = cur.Parent()
	}
	return Unknown, false
}

// coversByField reports whether parent's named field node covers ident's byte
// range.
func coversByField(parent *sitter.Node, field string, ident *sitter.Node) bool {
	target := parent.ChildByFieldName(field)
	if target == nil {
		return false
	}
	return ident.StartByte() >= target.StartByte() && ident.EndByte() <= target.EndByte()
}
