package parser

// LanguageSpec describes one language known to the toolkit. A language with
// Grammar=false is served exclusively by the regex fallback layer.
type LanguageSpec struct {
	Extensions []string
	Enabled    bool
	Grammar    bool
}

// DefaultRegistry returns the built-in language table. Rust ships with a
// compiled-in grammar but starts disabled, so .rs files take the fallback
// path unless configuration opts in.
func DefaultRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"javascript": {Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}, Enabled: true, Grammar: true},
		"typescript": {Extensions: []string{".ts"}, Enabled: true, Grammar: true},
		"tsx":        {Extensions: []string{".tsx"}, Enabled: true, Grammar: true},
		"python":     {Extensions: []string{".py"}, Enabled: true, Grammar: true},
		"go":         {Extensions: []string{".go"}, Enabled: true, Grammar: true},
		"java":       {Extensions: []string{".java"}, Enabled: true, Grammar: true},
		"rust":       {Extensions: []string{".rs"}, Enabled: false, Grammar: true},

		// Fallback-only language families.
		"c":    {Extensions: []string{".c", ".h"}, Enabled: true},
		"cpp":  {Extensions: []string{".cpp", ".cc", ".cxx", ".hpp"}, Enabled: true},
		"php":  {Extensions: []string{".php"}, Enabled: true},
		"ruby": {Extensions: []string{".rb"}, Enabled: true},
	}
}

func cloneRegistry(registry map[string]LanguageSpec) map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(registry))
	for id, spec := range registry {
		exts := make([]string, len(spec.Extensions))
		copy(exts, spec.Extensions)
		spec.Extensions = exts
		out[id] = spec
	}
	return out
}
