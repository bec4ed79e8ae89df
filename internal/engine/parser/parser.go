package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codelens/internal/core/errors"
)

// Parser turns source text into a concrete syntax tree for one of the
// registered languages. Trees are exclusively owned by the call that produced
// them; nothing is cached between calls.
type Parser struct {
	loader *GrammarLoader
}

// Tree is the result of parsing one source buffer with one grammar.
type Tree struct {
	inner    *sitter.Tree
	Source   []byte
	Language string
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

// Parse produces a syntax tree for source in the given language.
//
// Returns GRAMMAR_UNAVAILABLE when the language has no enabled grammar (the
// caller must use the regex fallback layer) and PARSE_FAILURE only when the
// parser produces no tree at all. Syntactically invalid input still yields a
// tree; error nodes are reported in the tree, never thrown.
func (p *Parser) Parse(source []byte, language string) (*Tree, error) {
	pool, ok := p.loader.pool(language)
	if !ok {
		return nil, errors.New(errors.CodeGrammarUnavailable,
			fmt.Sprintf("no grammar registered for language: %s", language))
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParseFailure,
			fmt.Sprintf("parser returned no tree for language: %s", language))
	}

	return &Tree{inner: tree, Source: source, Language: language}, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() *sitter.Node {
	return t.inner.RootNode()
}

// HasError reports whether the parse produced any error nodes.
func (t *Tree) HasError() bool {
	root := t.inner.RootNode()
	return root != nil && root.HasError()
}

// Close releases the underlying tree-sitter tree. The Tree must not be used
// afterwards.
func (t *Tree) Close() {
	if t.inner != nil {
		t.inner.Close()
		t.inner = nil
	}
}
