package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"codelens/internal/engine/parser"
	"codelens/internal/shared/util"
)

// Reader is the default filesystem-backed source reader.
type Reader struct{}

func (Reader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Writer persists mutated sources back to disk.
type Writer struct{}

func (Writer) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// Scanner walks a workspace and yields files the engine can analyze,
// honoring exclude globs matched against path base names.
type Scanner struct {
	loader    *parser.GrammarLoader
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func NewScanner(loader *parser.GrammarLoader, excludeDirs, excludeFiles []string) (*Scanner, error) {
	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		normalized := util.NormalizePatternPath(p)
		if normalized == "" {
			continue
		}
		g, err := glob.Compile(normalized)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		normalized := util.NormalizePatternPath(p)
		if normalized == "" {
			continue
		}
		g, err := glob.Compile(normalized)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	return &Scanner{loader: loader, dirGlobs: dirGlobs, fileGlobs: fileGlobs}, nil
}

// Scan returns the analyzable files under root in walk order. When language
// is non-empty only that language's files are returned.
func (s *Scanner) Scan(root, language string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			for _, g := range s.dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		detected := s.loader.DetectLanguage(path)
		if detected == "" {
			return nil
		}
		if language != "" && detected != language {
			return nil
		}

		for _, g := range s.fileGlobs {
			if g.Match(base) {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
