package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"codelens/internal/engine/parser"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanFiltersAndExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.js":             "function a() {}",
		"src/util.py":            "def b(): pass",
		"src/app.min.js":         "function c() {}",
		"node_modules/pkg/ix.js": "function d() {}",
		"docs/readme.md":         "# nope",
		"vendor/lib/thing.go":    "package thing",
		"cmd/main.go":            "package main",
	})

	loader := parser.NewGrammarLoader(nil)
	scanner, err := NewScanner(loader, []string{"node_modules", "vendor"}, []string{"*.min.js"})
	if err != nil {
		t.Fatal(err)
	}

	files, err := scanner.Scan(root, "")
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]bool, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(root, f)
		got[filepath.ToSlash(rel)] = true
	}

	for _, want := range []string{"src/app.js", "src/util.py", "cmd/main.go"} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	for _, banned := range []string{"src/app.min.js", "node_modules/pkg/ix.js", "vendor/lib/thing.go", "docs/readme.md"} {
		if got[banned] {
			t.Errorf("%s should have been excluded", banned)
		}
	}
}

func TestScanLanguageFilter(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.js": "x",
		"b.py": "y",
		"c.go": "z",
	})

	loader := parser.NewGrammarLoader(nil)
	scanner, err := NewScanner(loader, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	files, err := scanner.Scan(root, "python")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "b.py" {
		t.Errorf("files = %v, want only b.py", files)
	}
}

func TestScanNormalizesExcludePatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.js":          "function a() {}",
		"node_modules/dep.js": "function d() {}",
	})

	loader := parser.NewGrammarLoader(nil)
	scanner, err := NewScanner(loader, []string{"./node_modules/"}, []string{" ", "."})
	if err != nil {
		t.Fatal(err)
	}

	files, err := scanner.Scan(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "app.js" {
		t.Errorf("files = %v, want only src/app.js", files)
	}
}

func TestNewScannerBadPattern(t *testing.T) {
	loader := parser.NewGrammarLoader(nil)
	if _, err := NewScanner(loader, []string{"[unclosed"}, nil); err == nil {
		t.Fatal("expected error for invalid glob")
	}
}

func TestSearchFile(t *testing.T) {
	source := []byte("addItem(1);\n// addItem note\nconst x = addItem + addItem;\n")
	hits := SearchFile("f.js", source, "addItem")

	if len(hits) != 4 {
		t.Fatalf("hits = %d, want 4: %+v", len(hits), hits)
	}
	if hits[0].Line != 1 || hits[0].Column != 1 {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[2].Line != 3 || hits[3].Line != 3 {
		t.Error("both same-line occurrences should be reported")
	}
	if hits[2].Column >= hits[3].Column {
		t.Errorf("columns out of order: %d, %d", hits[2].Column, hits[3].Column)
	}
	if hits[1].Content != "// addItem note" {
		t.Errorf("content = %q", hits[1].Content)
	}
}

func TestSearchFileEmptyPattern(t *testing.T) {
	if hits := SearchFile("f.js", []byte("anything"), ""); hits != nil {
		t.Errorf("hits = %v, want nil", hits)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "payload"})

	data, err := Reader{}.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}

	if _, err := (Reader{}).ReadFile(filepath.Join(root, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriterRoundTrip(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "out.js")

	if err := (Writer{}).WriteFile(path, []byte("const x = 1;\n")); err != nil {
		t.Fatal(err)
	}

	data, err := Reader{}.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "const x = 1;\n" {
		t.Errorf("data = %q", data)
	}
}
