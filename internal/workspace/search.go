package workspace

import (
	"strings"

	"codelens/internal/engine/classify"
	"codelens/internal/shared/util"
)

// SearchFile finds every occurrence of a literal pattern in one file's
// source, one hit per occurrence. Line and column are 1-based; a line
// containing the pattern twice yields two hits.
func SearchFile(path string, source []byte, pattern string) []classify.Hit {
	if pattern == "" {
		return nil
	}

	var hits []classify.Hit
	for i, line := range util.SplitLines(string(source)) {
		offset := 0
		for {
			idx := strings.Index(line[offset:], pattern)
			if idx < 0 {
				break
			}
			col := offset + idx
			hits = append(hits, classify.Hit{
				File:    path,
				Line:    i + 1,
				Column:  col + 1,
				Content: line,
			})
			offset = col + len(pattern)
		}
	}
	return hits
}
