package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nameChildKinds are the child node kinds scanned when a grammar binding does
// not expose a declaration's name through a named field.
var nameChildKinds = map[string]bool{
	"identifier":          true,
	"name":                true,
	"field_identifier":    true,
	"type_identifier":     true,
	"property_identifier": true,
	"package_identifier":  true,
	"constant":            true,
	"word":                true,
}

// bodyChildKinds mirror nameChildKinds for "body" lookups.
var bodyChildKinds = map[string]bool{
	"block":                  true,
	"statement_block":        true,
	"class_body":             true,
	"declaration_list":       true,
	"enum_body":              true,
	"interface_body":         true,
	"field_declaration_list": true,
	"body":                   true,
}

// ResolveNamedChild resolves a node's semantically labeled child. It tries
// the grammar's field lookup first and then scans direct children for kinds
// that conventionally carry the requested label. Grammar generations disagree
// on which fields are exposed, so a missing field returns nil rather than
// failing.
func ResolveNamedChild(node *sitter.Node, field string) *sitter.Node {
	if node == nil {
		return nil
	}
	if child := node.ChildByFieldName(field); child != nil {
		return child
	}

	var kinds map[string]bool
	switch field {
	case "name":
		kinds = nameChildKinds
	case "body":
		kinds = bodyChildKinds
	default:
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && kinds[child.Kind()] {
			return child
		}
	}
	return nil
}

// NodeText returns the source bytes spanned by a node as a trimmed string.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}

// RawNodeText returns the untrimmed source slice for a node.
func RawNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// StartLine returns the node's 1-based first line.
func StartLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// EndLine returns the node's 1-based last line.
func EndLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// DescendantAt returns the smallest node containing the zero-based (row, col)
// position, or nil when the position lies outside the tree.
func DescendantAt(node *sitter.Node, row, col uint) *sitter.Node {
	if node == nil || !containsPoint(node, row, col) {
		return nil
	}
	for {
		var next *sitter.Node
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && containsPoint(child, row, col) {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

func containsPoint(node *sitter.Node, row, col uint) bool {
	start := node.StartPosition()
	end := node.EndPosition()
	if row < start.Row || row > end.Row {
		return false
	}
	if row == start.Row && col < start.Column {
		return false
	}
	if row == end.Row && col >= end.Column {
		return false
	}
	return true
}
