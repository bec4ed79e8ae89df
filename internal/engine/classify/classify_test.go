package classify

import (
	"testing"
)

func hit(line int, content string) Hit {
	return Hit{File: "x.js", Line: line, Column: 1, Content: content}
}

func TestClassifyTextual(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		pattern  string
		language string
		want     Classification
	}{
		{"line comment", "// addItem is called here", "addItem", "javascript", Comment},
		{"block comment", "/* addItem legacy */", "addItem", "javascript", Comment},
		{"hash comment", "# addItem helper", "addItem", "python", Comment},
		{"import statement", "import { addItem } from './cart';", "addItem", "javascript", Import},
		{"python import", "from cart import addItem", "addItem", "python", Import},
		{"go import", "import \"fmt\"", "fmt", "go", Import},
		{"rust use", "use crate::cart::add_item;", "add_item", "rust", Import},
		{"require binding", "const cart = require('cart');", "cart", "javascript", Import},
		{"string only", `console.log("addItem failed");`, "addItem", "javascript", String},
		{"single quotes", "label = 'run addItem now'", "addItem", "python", String},
		{"definition by pattern", "function addItem(item) {", "addItem", "javascript", Definition},
		{"python def", "def add_item(item):", "add_item", "python", Definition},
		{"plain usage", "cart.addItem(item);", "addItem", "javascript", Usage},
		{"usage outside string", `addItem("addItem");`, "addItem", "javascript", Usage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(hit(1, tc.content), tc.pattern, tc.language, nil)
			if got != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.content, got, tc.want)
			}
		})
	}
}

func TestClassifyAllCounts(t *testing.T) {
	hits := []Hit{
		hit(1, "// addItem"),
		hit(2, "function addItem() {"),
		hit(3, "addItem();"),
	}
	out := ClassifyAll(hits, "addItem", "javascript", nil)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	want := []Classification{Comment, Definition, Usage}
	for i, w := range want {
		if out[i].Classification != w {
			t.Errorf("hit %d = %s, want %s", i, out[i].Classification, w)
		}
	}
	if out[0].Line != 1 || out[2].Line != 3 {
		t.Error("hit positions must be preserved")
	}
}

func TestStringOnly(t *testing.T) {
	cases := []struct {
		line    string
		pattern string
		want    bool
	}{
		{`log("addItem")`, "addItem", true},
		{`addItem("addItem")`, "addItem", false},
		{`"addItem" + addItem()`, "addItem", false},
		{"`addItem template`", "addItem", true},
		{`escaped "a\"b addItem"`, "addItem", true},
		{`no occurrence here`, "addItem", false},
		{`unterminated "addItem`, "addItem", true},
	}

	for _, tc := range cases {
		if got := stringOnly(tc.line, tc.pattern); got != tc.want {
			t.Errorf("stringOnly(%q, %q) = %v, want %v", tc.line, tc.pattern, got, tc.want)
		}
	}
}

func TestQuotedRegions(t *testing.T) {
	regions := quotedRegions(`a "bc" d 'ef'`)
	if len(regions) != 2 {
		t.Fatalf("regions = %v, want 2", regions)
	}
	if regions[0].start != 2 || regions[0].end != 6 {
		t.Errorf("first region = %+v", regions[0])
	}
}

func TestIsImportLine(t *testing.T) {
	if !isImportLine("#include <stdio.h>", "c") {
		t.Error("c include should classify as import")
	}
	if isImportLine("include_me()", "go") {
		t.Error("plain call is not an import")
	}
}
