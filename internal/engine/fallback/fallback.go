package fallback

import (
	"fmt"
	"strings"

	"codelens/internal/core/errors"
	"codelens/internal/engine/element"
	"codelens/internal/engine/outline"
	"codelens/internal/shared/util"
)

// The fallback layer serves languages without a compiled grammar and files
// whose parse failed. It is line-oriented and deliberately imprecise: brace
// counting does not understand strings or comments, and indentation scanning
// does not understand line continuations. Callers surface results from this
// layer as best-effort.

// Outline scans the source line by line and returns a flat outline. Every
// entry has depth 0; nesting is not reconstructed without a tree.
func Outline(source []byte, language string) ([]outline.Entry, error) {
	patterns, ok := patternTables[language]
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported,
				fmt.Sprintf("no fallback patterns for language %q", language)),
			errors.CtxLanguage, language)
	}

	lines := util.SplitLines(string(source))
	var entries []outline.Entry
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed, language) {
			continue
		}
		name, p, ok := matchPatterns(trimmed, patterns)
		if !ok {
			continue
		}
		entries = append(entries, outline.Entry{
			Kind:      p.kind,
			Name:      name,
			StartLine: i + 1,
			EndLine:   blockEnd(lines, i, language, patterns),
			Signature: signatureOf(trimmed),
			Style:     p.style,
			Exported:  exportedLine(language, trimmed, name),
			Depth:     0,
		})
	}
	return entries, nil
}

// Extract returns every fallback match for (name, kind) with contextLines of
// surrounding context. Absence yields an empty slice.
func Extract(source []byte, language, name string, kind outline.Kind, contextLines int) ([]element.Result, error) {
	entries, err := Outline(source, language)
	if err != nil {
		return nil, err
	}

	lines := util.SplitLines(string(source))
	var results []element.Result
	for _, e := range entries {
		if e.Name != name || !outline.Compatible(kind, e.Kind) {
			continue
		}
		lo := e.StartLine - 1 - contextLines
		if lo < 0 {
			lo = 0
		}
		hi := e.EndLine + contextLines
		if hi > len(lines) {
			hi = len(lines)
		}
		results = append(results, element.Result{
			Kind:      e.Kind,
			Name:      e.Name,
			StartLine: e.StartLine,
			EndLine:   e.EndLine,
			Content:   strings.Join(lines[lo:hi], "\n"),
		})
	}
	return results, nil
}

// Replace substitutes the first fallback match's line span with newText. The
// span comes from the same block heuristic as Outline, so replacement in
// brace-heavy string literals can clip wrong; the tree-backed path is always
// preferred when a grammar is available.
func Replace(source []byte, language, name string, kind outline.Kind, newText string) (string, error) {
	entries, err := Outline(source, language)
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		if e.Name != name || !outline.Compatible(kind, e.Kind) {
			continue
		}
		lines := util.SplitLines(string(source))
		out := make([]string, 0, len(lines))
		out = append(out, lines[:e.StartLine-1]...)
		out = append(out, newText)
		out = append(out, lines[e.EndLine:]...)
		joined := strings.Join(out, "\n")
		if strings.HasSuffix(string(source), "\n") && !strings.HasSuffix(joined, "\n") {
			joined += "\n"
		}
		return joined, nil
	}
	err = errors.New(errors.CodeNotFound,
		fmt.Sprintf("no %s named %q", kindOrElement(kind), name))
	err = errors.AddContext(err, errors.CtxSymbol, name)
	return "", errors.AddContext(err, errors.CtxLanguage, language)
}

// MatchLine classifies a single line against the language's declaration
// patterns.
func MatchLine(line, language string) (string, outline.Kind, bool) {
	patterns, ok := patternTables[language]
	if !ok {
		return "", "", false
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || isCommentLine(trimmed, language) {
		return "", "", false
	}
	name, p, ok := matchPatterns(trimmed, patterns)
	if !ok {
		return "", "", false
	}
	return name, p.kind, true
}

// IsDefinitionLine reports whether the line introduces a declaration under the
// fallback patterns.
func IsDefinitionLine(line, language string) bool {
	_, _, ok := MatchLine(line, language)
	return ok
}

// IsCommentLine reports whether a trimmed line is a whole-line comment in the
// language.
func IsCommentLine(line, language string) bool {
	return isCommentLine(strings.TrimSpace(line), language)
}

func matchPatterns(trimmed string, patterns []Pattern) (string, Pattern, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		name := m[1]
		if excludedNames[name] {
			continue
		}
		return name, p, true
	}
	return "", Pattern{}, false
}

func isCommentLine(trimmed, language string) bool {
	for _, prefix := range commentPrefixes[language] {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// blockEnd finds the 1-based end line of the block starting at index start.
// Brace languages count {} depth; indentation languages scan for the first
// line at or below the declaration's indent.
func blockEnd(lines []string, start int, language string, patterns []Pattern) int {
	if indentBlockLanguages[language] {
		return indentBlockEnd(lines, start)
	}
	return braceBlockEnd(lines, start, language, patterns)
}

func braceBlockEnd(lines []string, start int, language string, patterns []Pattern) int {
	depth := 0
	started := false
	for j := start; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if !started && j > start {
			// Still hunting for the opening brace. A blank line or another
			// declaration means the construct was single-line.
			if trimmed == "" {
				return start + 1
			}
			if _, _, ok := matchPatterns(trimmed, patterns); ok && !isCommentLine(trimmed, language) {
				return start + 1
			}
		}
		for _, r := range lines[j] {
			switch r {
			case '{':
				depth++
				started = true
			case '}':
				depth--
			}
		}
		if started && depth <= 0 {
			return j + 1
		}
	}
	if !started {
		return start + 1
	}
	return len(lines)
}

func indentBlockEnd(lines []string, start int) int {
	declIndent := indentWidth(lines[start])
	end := start
	for j := start + 1; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		if indentWidth(lines[j]) <= declIndent {
			break
		}
		end = j
	}
	return end + 1
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

func signatureOf(trimmed string) string {
	line := strings.TrimSpace(strings.TrimSuffix(trimmed, "{"))
	if runes := []rune(line); len(runes) > 120 {
		line = string(runes[:120])
	}
	return line
}

func exportedLine(language, trimmed, name string) bool {
	switch language {
	case "javascript", "typescript", "tsx":
		return strings.HasPrefix(trimmed, "export ")
	case "go":
		return name != "" && name[0] >= 'A' && name[0] <= 'Z'
	case "python":
		return !strings.HasPrefix(name, "_")
	case "java", "php":
		return strings.Contains(trimmed, "public ")
	case "rust":
		return strings.HasPrefix(trimmed, "pub ") || strings.HasPrefix(trimmed, "pub(")
	}
	return false
}

func kindOrElement(kind outline.Kind) string {
	if kind == "" {
		return "element"
	}
	return string(kind)
}
