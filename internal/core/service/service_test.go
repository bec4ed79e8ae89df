package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"codelens/internal/core/config"
	"codelens/internal/core/errors"
	"codelens/internal/core/ports"
	"codelens/internal/engine/classify"
	"codelens/internal/engine/parser"
	"codelens/internal/workspace"
)

// mapReader serves sources from memory.
type mapReader struct {
	files map[string]string
}

func (r mapReader) ReadFile(path string) ([]byte, error) {
	content, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return []byte(content), nil
}

// memoryHistory records saves for assertions.
type memoryHistory struct {
	mu      sync.Mutex
	records []ports.OperationRecord
}

func (h *memoryHistory) Save(record ports.OperationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *memoryHistory) Recent(limit int) ([]ports.OperationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.records) {
		limit = len(h.records)
	}
	return h.records[:limit], nil
}

// mapWriter captures write-backs.
type mapWriter struct {
	written map[string]string
}

func (w *mapWriter) WriteFile(path string, data []byte) error {
	if w.written == nil {
		w.written = make(map[string]string)
	}
	w.written[path] = string(data)
	return nil
}

const jsSource = `function add(a, b) {
  return a + b;
}

const sub = (a, b) => a - b;
`

const rustSource = `pub fn area(r: f64) -> f64 {
    3.14 * r * r
}

pub struct Circle {
    r: f64,
}
`

func testAnalyzer(files map[string]string, opts ...Option) *Analyzer {
	loader := parser.NewGrammarLoader(nil)
	cfg := config.Analysis{ContextLines: 0, MaxDepth: 512, FallbackEnabled: true}
	return New(loader, mapReader{files: files}, nil, cfg, opts...)
}

func TestOutlineAST(t *testing.T) {
	a := testAnalyzer(map[string]string{"calc.js": jsSource})

	report, err := a.Outline(context.Background(), ports.OutlineRequest{Path: "calc.js"})
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}

	if report.Language != "javascript" {
		t.Errorf("language = %q", report.Language)
	}
	if report.Fallback {
		t.Error("grammar-backed outline should not report fallback")
	}
	if report.Count != 2 {
		t.Fatalf("count = %d, want add and sub", report.Count)
	}
	if report.Outline[0].Name != "add" || report.Outline[1].Name != "sub" {
		t.Errorf("outline = %+v", report.Outline)
	}
	if report.Outline[1].Style != "arrow" {
		t.Errorf("sub style = %q", report.Outline[1].Style)
	}
}

func TestOutlineFallbackForDisabledGrammar(t *testing.T) {
	a := testAnalyzer(map[string]string{"geometry.rs": rustSource})

	report, err := a.Outline(context.Background(), ports.OutlineRequest{Path: "geometry.rs"})
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}

	if report.Language != "rust" {
		t.Errorf("language = %q", report.Language)
	}
	if !report.Fallback {
		t.Error("rust outline must come from the regex fallback by default")
	}
	names := make([]string, 0, report.Count)
	for _, e := range report.Outline {
		names = append(names, e.Name)
	}
	if report.Count != 2 || names[0] != "area" || names[1] != "Circle" {
		t.Errorf("outline names = %v", names)
	}
}

func TestOutlineFallbackDisabled(t *testing.T) {
	loader := parser.NewGrammarLoader(nil)
	cfg := config.Analysis{MaxDepth: 512, FallbackEnabled: false}
	a := New(loader, mapReader{files: map[string]string{"geometry.rs": rustSource}}, nil, cfg)

	_, err := a.Outline(context.Background(), ports.OutlineRequest{Path: "geometry.rs"})
	if !errors.IsCode(err, errors.CodeGrammarUnavailable) {
		t.Fatalf("err = %v, want GRAMMAR_UNAVAILABLE", err)
	}
}

func TestOutlineUnknownExtension(t *testing.T) {
	a := testAnalyzer(map[string]string{"notes.txt": "hello"})

	_, err := a.Outline(context.Background(), ports.OutlineRequest{Path: "notes.txt"})
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("err = %v, want NOT_SUPPORTED", err)
	}
}

func TestExtractElement(t *testing.T) {
	a := testAnalyzer(map[string]string{"calc.js": jsSource})

	report, err := a.ExtractElement(context.Background(), ports.ExtractRequest{
		Path: "calc.js",
		Name: "sub",
	})
	if err != nil {
		t.Fatalf("ExtractElement: %v", err)
	}
	if !report.Found || len(report.Results) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !strings.Contains(report.Results[0].Content, "const sub") {
		t.Errorf("content = %q", report.Results[0].Content)
	}
}

func TestExtractElementAbsence(t *testing.T) {
	a := testAnalyzer(map[string]string{"calc.js": jsSource})

	report, err := a.ExtractElement(context.Background(), ports.ExtractRequest{
		Path: "calc.js",
		Name: "ghost",
	})
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if report.Found || len(report.Results) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestReplaceElementDryRun(t *testing.T) {
	a := testAnalyzer(map[string]string{"calc.js": jsSource})

	report, err := a.ReplaceElement(context.Background(), ports.ReplaceRequest{
		Path:    "calc.js",
		Name:    "add",
		NewText: "function add(a, b) {\n  return b + a;\n}",
	})
	if err != nil {
		t.Fatalf("ReplaceElement: %v", err)
	}
	if report.Written {
		t.Error("dry run must not write")
	}
	if report.StartLine != 1 || report.EndLine != 3 {
		t.Errorf("span = %d-%d", report.StartLine, report.EndLine)
	}
	if !strings.Contains(report.NewSource, "return b + a;") {
		t.Errorf("new source = %q", report.NewSource)
	}
	if !strings.Contains(report.NewSource, "const sub") {
		t.Error("unrelated code disturbed")
	}
}

func TestReplaceElementWritesThroughPort(t *testing.T) {
	writer := &mapWriter{}
	a := testAnalyzer(map[string]string{"calc.js": jsSource}, WithWriter(writer))

	report, err := a.ReplaceElement(context.Background(), ports.ReplaceRequest{
		Path:    "calc.js",
		Name:    "add",
		NewText: "function add(a, b) {\n  return b + a;\n}",
		Write:   true,
	})
	if err != nil {
		t.Fatalf("ReplaceElement: %v", err)
	}
	if !report.Written {
		t.Error("report should mark the write")
	}
	got, ok := writer.written["calc.js"]
	if !ok {
		t.Fatal("nothing written through the port")
	}
	if !strings.Contains(got, "return b + a;") || !strings.Contains(got, "const sub") {
		t.Errorf("written source = %q", got)
	}
}

func TestReplaceElementWriteWithoutWriter(t *testing.T) {
	a := testAnalyzer(map[string]string{"calc.js": jsSource})

	_, err := a.ReplaceElement(context.Background(), ports.ReplaceRequest{
		Path:    "calc.js",
		Name:    "add",
		NewText: "function add(a, b) {}",
		Write:   true,
	})
	if !errors.IsCode(err, errors.CodeInternal) {
		t.Fatalf("err = %v, want INTERNAL_ERROR", err)
	}
}

func TestReplaceElementNotFound(t *testing.T) {
	a := testAnalyzer(map[string]string{"calc.js": jsSource})

	_, err := a.ReplaceElement(context.Background(), ports.ReplaceRequest{
		Path:    "calc.js",
		Name:    "ghost",
		NewText: "x",
	})
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestClassifyHits(t *testing.T) {
	source := strings.Join([]string{
		"import { addItem } from './cart';",
		"// addItem adds a thing",
		"function addItem(item) {",
		"  return item;",
		"}",
		`log("addItem done");`,
		"addItem(1);",
	}, "\n")
	a := testAnalyzer(map[string]string{"cart.js": source})

	hits := workspace.SearchFile("cart.js", []byte(source), "addItem")
	report, err := a.ClassifyHits(context.Background(), ports.ClassifyRequest{
		Path:    "cart.js",
		Pattern: "addItem",
		Hits:    hits,
	})
	if err != nil {
		t.Fatalf("ClassifyHits: %v", err)
	}

	byLine := make(map[int]classify.Classification)
	for _, h := range report.Hits {
		byLine[h.Line] = h.Classification
	}

	want := map[int]classify.Classification{
		1: classify.Import,
		2: classify.Comment,
		3: classify.Definition,
		6: classify.String,
		7: classify.Usage,
	}
	for line, cls := range want {
		if byLine[line] != cls {
			t.Errorf("line %d = %s, want %s", line, byLine[line], cls)
		}
	}
}

func TestSearchClassifies(t *testing.T) {
	// no scanner wired: Search must fail cleanly
	a := testAnalyzer(map[string]string{})
	_, err := a.Search(context.Background(), ports.SearchRequest{Root: ".", Pattern: "x"})
	if !errors.IsCode(err, errors.CodeInternal) {
		t.Fatalf("err = %v, want INTERNAL_ERROR", err)
	}
}

func TestSearchEmptyPattern(t *testing.T) {
	a := testAnalyzer(map[string]string{})
	_, err := a.Search(context.Background(), ports.SearchRequest{Root: "."})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestHistoryRecords(t *testing.T) {
	store := &memoryHistory{}
	a := testAnalyzer(map[string]string{
		"calc.js":     jsSource,
		"geometry.rs": rustSource,
	}, WithHistory(store))

	if _, err := a.Outline(context.Background(), ports.OutlineRequest{Path: "calc.js"}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Outline(context.Background(), ports.OutlineRequest{Path: "geometry.rs"}); err != nil {
		t.Fatal(err)
	}
	_, _ = a.Outline(context.Background(), ports.OutlineRequest{Path: "missing.js"})

	if len(store.records) != 3 {
		t.Fatalf("records = %d, want 3", len(store.records))
	}
	if store.records[0].Fallback {
		t.Error("ast outline recorded as fallback")
	}
	if !store.records[1].Fallback {
		t.Error("rust outline should record fallback")
	}
	if store.records[2].ErrorCode != string(errors.CodeNotFound) {
		t.Errorf("error code = %q", store.records[2].ErrorCode)
	}
	for _, r := range store.records {
		if r.ID == "" || r.Operation != "outline" {
			t.Errorf("record = %+v", r)
		}
	}
}

func TestLanguageOverride(t *testing.T) {
	a := testAnalyzer(map[string]string{"script.weird": "def f():\n    pass\n"})

	report, err := a.Outline(context.Background(), ports.OutlineRequest{
		Path:     "script.weird",
		Language: "python",
	})
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if report.Count != 1 || report.Outline[0].Name != "f" {
		t.Errorf("outline = %+v", report.Outline)
	}
}
