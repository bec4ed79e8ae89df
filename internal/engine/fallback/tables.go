package fallback

import (
	"regexp"

	"codelens/internal/engine/outline"
)

// Pattern is one line-oriented declaration matcher. The first capture group
// is the declaration name. Tables are built once at process start and never
// mutated.
type Pattern struct {
	re    *regexp.Regexp
	kind  outline.Kind
	style string
}

var javascriptPatterns = []Pattern{
	{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`), outline.KindFunction, ""},
	{regexp.MustCompile(`^(?:export\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`), outline.KindInterface, ""},
	{regexp.MustCompile(`^(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*=`), outline.KindType, ""},
	{regexp.MustCompile(`^(?:export\s+)?(?:const\s+)?enum\s+([A-Za-z_$][\w$]*)`), outline.KindEnum, ""},
	{regexp.MustCompile(`^(?:export\s+)?namespace\s+([A-Za-z_$][\w$]*)`), outline.KindNamespace, ""},
	{regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`), outline.KindFunction, "arrow"},
	{regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?function\b`), outline.KindFunction, "default"},
	{regexp.MustCompile(`^(?:async\s+)?(?:static\s+)?(?:get\s+|set\s+)?([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`), outline.KindMethod, ""},
}

var pythonPatterns = []Pattern{
	{regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`), outline.KindFunction, ""},
	{regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*lambda\b`), outline.KindFunction, "default"},
}

var goPatterns = []Pattern{
	{regexp.MustCompile(`^func\s+\([^)]+\)\s+([A-Za-z_]\w*)\s*\(`), outline.KindMethod, ""},
	{regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*\(`), outline.KindFunction, ""},
	{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+interface\b`), outline.KindInterface, ""},
	{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+struct\b`), outline.KindType, ""},
	{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\b`), outline.KindType, ""},
	{regexp.MustCompile(`^(?:var|const)\s+([A-Za-z_]\w*)\s*=\s*func\b`), outline.KindFunction, "default"},
}

var javaPatterns = []Pattern{
	{regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract)\s+)*class\s+([A-Za-z_]\w*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract)\s+)*interface\s+([A-Za-z_]\w*)`), outline.KindInterface, ""},
	{regexp.MustCompile(`^(?:(?:public|private|protected|static|final)\s+)*enum\s+([A-Za-z_]\w*)`), outline.KindEnum, ""},
	{regexp.MustCompile(`^(?:(?:public|private|protected|static|final)\s+)*record\s+([A-Za-z_]\w*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract|synchronized|native)\s+)+[\w<>\[\],.\s]+\s+([A-Za-z_]\w*)\s*\([^)]*\)\s*(?:\{|throws)`), outline.KindMethod, ""},
}

var rustPatterns = []Pattern{
	{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`), outline.KindFunction, ""},
	{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`), outline.KindType, ""},
	{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`), outline.KindEnum, ""},
	{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`), outline.KindInterface, ""},
	{regexp.MustCompile(`^impl(?:<[^>]*>)?\s+(?:[\w:]+\s+for\s+)?([A-Za-z_][\w:]*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?mod\s+([A-Za-z_]\w*)`), outline.KindNamespace, ""},
	{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?type\s+([A-Za-z_]\w*)`), outline.KindType, ""},
}

var cPatterns = []Pattern{
	{regexp.MustCompile(`^(?:typedef\s+)?struct\s+([A-Za-z_]\w*)`), outline.KindType, ""},
	{regexp.MustCompile(`^(?:typedef\s+)?enum\s+([A-Za-z_]\w*)`), outline.KindEnum, ""},
	{regexp.MustCompile(`^(?:typedef\s+)?union\s+([A-Za-z_]\w*)`), outline.KindType, ""},
	{regexp.MustCompile(`^[A-Za-z_][\w\s\*]*[\s\*]([A-Za-z_]\w*)\s*\([^;]*\)\s*\{?\s*$`), outline.KindFunction, ""},
}

var cppPatterns = append([]Pattern{
	{regexp.MustCompile(`^(?:template\s*<[^>]*>\s*)?class\s+([A-Za-z_]\w*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^namespace\s+([A-Za-z_]\w*)`), outline.KindNamespace, ""},
}, cPatterns...)

var phpPatterns = []Pattern{
	{regexp.MustCompile(`^(?:abstract\s+|final\s+)?class\s+(\w+)`), outline.KindClass, ""},
	{regexp.MustCompile(`^interface\s+(\w+)`), outline.KindInterface, ""},
	{regexp.MustCompile(`^trait\s+(\w+)`), outline.KindClass, ""},
	{regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract)\s+)*function\s+&?(\w+)`), outline.KindFunction, ""},
}

var rubyPatterns = []Pattern{
	{regexp.MustCompile(`^def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`), outline.KindFunction, ""},
	{regexp.MustCompile(`^class\s+([A-Z]\w*)`), outline.KindClass, ""},
	{regexp.MustCompile(`^module\s+([A-Z]\w*)`), outline.KindNamespace, ""},
}

var patternTables = map[string][]Pattern{
	"javascript": javascriptPatterns,
	"typescript": javascriptPatterns,
	"tsx":        javascriptPatterns,
	"python":     pythonPatterns,
	"go":         goPatterns,
	"java":       javaPatterns,
	"rust":       rustPatterns,
	"c":          cPatterns,
	"cpp":        cppPatterns,
	"php":        phpPatterns,
	"ruby":       rubyPatterns,
}

// excludedNames filters control-flow keywords that the looser patterns (the
// method heuristic in particular) capture as false-positive identifiers.
var excludedNames = map[string]bool{
	"if": true, "else": true, "elif": true, "for": true, "while": true,
	"switch": true, "case": true, "default": true, "catch": true, "try": true,
	"return": true, "throw": true, "new": true, "do": true, "typeof": true,
	"delete": true, "void": true, "in": true, "of": true, "await": true,
	"yield": true, "with": true, "assert": true, "raise": true, "except": true,
	"not": true, "and": true, "or": true, "print": true, "super": true,
	"function": true, "lambda": true, "defer": true, "select": true,
}

// commentPrefixes per language family; a line starting with any of these is
// skipped during fallback scans and classified as a comment.
var commentPrefixes = map[string][]string{
	"javascript": {"//", "/*", "*"},
	"typescript": {"//", "/*", "*"},
	"tsx":        {"//", "/*", "*"},
	"python":     {"#"},
	"go":         {"//"},
	"java":       {"//", "/*", "*"},
	"rust":       {"//", "/*", "*"},
	"c":          {"//", "/*", "*"},
	"cpp":        {"//", "/*", "*"},
	"php":        {"//", "#", "/*", "*"},
	"ruby":       {"#"},
}

// indentBlockLanguages delimit blocks by indentation instead of braces.
var indentBlockLanguages = map[string]bool{
	"python": true,
	"ruby":   false, // ruby uses end keywords; brace counting never fires, block ends at the def line
}

// Supported reports whether the fallback layer has a pattern table for the
// language.
func Supported(language string) bool {
	_, ok := patternTables[language]
	return ok
}

// Languages returns the language IDs the fallback layer can serve.
func Languages() []string {
	out := make([]string, 0, len(patternTables))
	for lang := range patternTables {
		out = append(out, lang)
	}
	return out
}
