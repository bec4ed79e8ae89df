package element

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codelens/internal/core/errors"
	"codelens/internal/engine/outline"
	"codelens/internal/shared/util"
)

// Result is one located element with its surrounding context.
type Result struct {
	Kind      outline.Kind `json:"kind"`
	Name      string       `json:"name"`
	StartLine int          `json:"startLine"`
	EndLine   int          `json:"endLine"`
	Content   string       `json:"content"`
}

// Match is a located declaration node prior to extraction or replacement.
type Match struct {
	Entry     outline.Entry
	StartByte uint
	EndByte   uint
}

// Find walks the tree for declarations whose (name, kind) satisfy the query
// under the loose compatibility relation. Matches are deduplicated by line
// span; duplicates arise when a wrapper and its inner declaration both
// classify to the same element.
func Find(root *sitter.Node, source []byte, language, name string, kind outline.Kind) []Match {
	f := &finder{source: source, language: language, name: name, kind: kind,
		seen: make(map[[2]int]bool)}
	f.walk(root, 0)
	return f.matches
}

type finder struct {
	source   []byte
	language string
	name     string
	kind     outline.Kind
	seen     map[[2]int]bool
	matches  []Match
}

func (f *finder) walk(node *sitter.Node, depth int) {
	if node == nil || depth >= outline.DefaultMaxDepth {
		return
	}
	for _, d := range outline.Declarations(node, f.source, f.language) {
		if d.Entry.Name != f.name || !outline.Compatible(f.kind, d.Entry.Kind) {
			continue
		}
		key := [2]int{d.Entry.StartLine, d.Entry.EndLine}
		if f.seen[key] {
			continue
		}
		f.seen[key] = true
		f.matches = append(f.matches, Match{
			Entry:     d.Entry,
			StartByte: d.Node.StartByte(),
			EndByte:   d.Node.EndByte(),
		})
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		f.walk(node.Child(i), depth+1)
	}
}

// Extract returns every non-duplicate match expanded by contextLines on both
// sides (clamped to the file). Duplicate names across scopes all come back;
// absence yields an empty slice, not an error.
func Extract(root *sitter.Node, source []byte, language, name string, kind outline.Kind, contextLines int) []Result {
	matches := Find(root, source, language, name, kind)
	if len(matches) == 0 {
		return nil
	}

	lines := util.SplitLines(string(source))
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Kind:      m.Entry.Kind,
			Name:      m.Entry.Name,
			StartLine: m.Entry.StartLine,
			EndLine:   m.Entry.EndLine,
			Content:   sliceContext(lines, m.Entry.StartLine, m.Entry.EndLine, contextLines),
		})
	}
	return results
}

// Replace substitutes the first match's exact byte range with newText. No
// reformatting, re-indentation, or brace-balance validation is performed; the
// caller owns the syntactic validity of newText.
func Replace(root *sitter.Node, source []byte, language, name string, kind outline.Kind, newText string) (string, error) {
	matches := Find(root, source, language, name, kind)
	if len(matches) == 0 {
		return "", errors.New(errors.CodeNotFound,
			fmt.Sprintf("no %s named %q", kindLabel(kind), name))
	}

	m := matches[0]
	out := make([]byte, 0, len(source)-int(m.EndByte-m.StartByte)+len(newText))
	out = append(out, source[:m.StartByte]...)
	out = append(out, newText...)
	out = append(out, source[m.EndByte:]...)
	return string(out), nil
}

// sliceContext joins lines [startLine-context, endLine+context], 1-based and
// inclusive, clamped to the file.
func sliceContext(lines []string, startLine, endLine, context int) string {
	lo := startLine - 1 - context
	if lo < 0 {
		lo = 0
	}
	hi := endLine + context
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo >= hi {
		return ""
	}
	return strings.Join(lines[lo:hi], "\n")
}

func kindLabel(kind outline.Kind) string {
	if kind == "" {
		return "element"
	}
	return string(kind)
}
