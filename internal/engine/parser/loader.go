package parser

import (
	"path"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"codelens/internal/shared/util"
)

// GrammarLoader owns the compiled tree-sitter grammars and one parser pool
// per enabled language. It is immutable after construction and safe for
// concurrent use.
type GrammarLoader struct {
	languages  map[string]*sitter.Language
	pools      map[string]*ParserPool
	registry   map[string]LanguageSpec
	extensions map[string]string
}

func NewGrammarLoader(registry map[string]LanguageSpec) *GrammarLoader {
	if registry == nil {
		registry = DefaultRegistry()
	}

	gl := &GrammarLoader{
		languages:  make(map[string]*sitter.Language),
		pools:      make(map[string]*ParserPool),
		registry:   cloneRegistry(registry),
		extensions: make(map[string]string),
	}

	for _, langID := range util.SortedStringKeys(gl.registry) {
		spec := gl.registry[langID]
		// Extensions register even for disabled languages so their files are
		// still detected and routed to the regex fallback.
		for _, ext := range spec.Extensions {
			gl.extensions[strings.ToLower(ext)] = langID
		}
		if !spec.Enabled || !spec.Grammar {
			continue
		}
		switch langID {
		case "go":
			gl.languages["go"] = sitter.NewLanguage(tree_sitter_go.Language())
		case "java":
			gl.languages["java"] = sitter.NewLanguage(tree_sitter_java.Language())
		case "javascript":
			gl.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())
		case "python":
			gl.languages["python"] = sitter.NewLanguage(tree_sitter_python.Language())
		case "rust":
			gl.languages["rust"] = sitter.NewLanguage(tree_sitter_rust.Language())
		case "tsx":
			gl.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		case "typescript":
			gl.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		}
	}

	for langID, lang := range gl.languages {
		gl.pools[langID] = NewParserPool(lang)
	}

	return gl
}

// Language returns the grammar for a language ID, or false when the language
// has no enabled grammar. Missing grammars are tolerated; callers fall back
// to the regex layer.
func (gl *GrammarLoader) Language(id string) (*sitter.Language, bool) {
	lang, ok := gl.languages[id]
	return lang, ok
}

func (gl *GrammarLoader) pool(id string) (*ParserPool, bool) {
	p, ok := gl.pools[id]
	return p, ok
}

// DetectLanguage maps a file path to a language ID via the extension table,
// or "" when the extension is unknown.
func (gl *GrammarLoader) DetectLanguage(filePath string) string {
	base := strings.ToLower(path.Base(filepath.ToSlash(filePath)))
	ext := strings.ToLower(filepath.Ext(base))
	if lang, ok := gl.extensions[ext]; ok {
		return lang
	}
	return ""
}

// Registry returns a copy of the language registry.
func (gl *GrammarLoader) Registry() map[string]LanguageSpec {
	return cloneRegistry(gl.registry)
}

// SupportedExtensions returns every registered extension in sorted order.
func (gl *GrammarLoader) SupportedExtensions() []string {
	return util.SortedStringKeys(gl.extensions)
}
