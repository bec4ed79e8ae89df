package ports

import (
	"context"
	"time"

	"codelens/internal/engine/classify"
	"codelens/internal/engine/element"
	"codelens/internal/engine/outline"
)

// OutlineRequest asks for the structural outline of one file.
type OutlineRequest struct {
	Path     string
	Language string // empty means detect from the path
	MaxDepth int    // 0 means the configured default
}

// OutlineReport is the outline of a file plus how it was obtained.
type OutlineReport struct {
	File     string          `json:"file"`
	Language string          `json:"language"`
	Count    int             `json:"count"`
	Fallback bool            `json:"fallback,omitempty"`
	Outline  []outline.Entry `json:"outline"`
}

// ExtractRequest locates a named element and returns its source.
type ExtractRequest struct {
	Path         string
	Name         string
	Kind         outline.Kind // empty matches any kind
	ContextLines int
	Language     string
}

// ExtractReport carries zero or more located elements. Absence is not an
// error; Found is false and Results empty.
type ExtractReport struct {
	File     string           `json:"file"`
	Name     string           `json:"name"`
	Kind     outline.Kind     `json:"kind,omitempty"`
	Found    bool             `json:"found"`
	Fallback bool             `json:"fallback,omitempty"`
	Results  []element.Result `json:"results"`
}

// ReplaceRequest swaps the first matching element's text for NewText.
type ReplaceRequest struct {
	Path     string
	Name     string
	Kind     outline.Kind
	NewText  string
	Language string
	Write    bool // when false the rewritten source is returned but not persisted
}

// ReplaceReport describes a completed replacement.
type ReplaceReport struct {
	File      string       `json:"file"`
	Name      string       `json:"name"`
	Kind      outline.Kind `json:"kind,omitempty"`
	StartLine int          `json:"startLine"`
	EndLine   int          `json:"endLine"`
	Fallback  bool         `json:"fallback,omitempty"`
	Written   bool         `json:"written"`
	NewSource string       `json:"-"`
}

// ClassifyRequest labels raw search hits within one file.
type ClassifyRequest struct {
	Path     string
	Pattern  string
	Hits     []classify.Hit
	Language string
}

// ClassifyReport pairs each hit with its classification.
type ClassifyReport struct {
	File    string                   `json:"file"`
	Pattern string                   `json:"pattern"`
	Hits    []classify.ClassifiedHit `json:"hits"`
}

// SearchRequest scans files under a root for a literal pattern.
type SearchRequest struct {
	Root     string
	Pattern  string
	Language string // restrict to one language, empty means all supported
	Limit    int
}

// SearchReport is the classified result of a workspace search.
type SearchReport struct {
	Pattern string                   `json:"pattern"`
	Files   int                      `json:"files"`
	Hits    []classify.ClassifiedHit `json:"hits"`
}

// AnalysisService is the driving port over the engine.
type AnalysisService interface {
	Outline(ctx context.Context, req OutlineRequest) (OutlineReport, error)
	ExtractElement(ctx context.Context, req ExtractRequest) (ExtractReport, error)
	ReplaceElement(ctx context.Context, req ReplaceRequest) (ReplaceReport, error)
	ClassifyHits(ctx context.Context, req ClassifyRequest) (ClassifyReport, error)
	Search(ctx context.Context, req SearchRequest) (SearchReport, error)
}

// FileReader abstracts source access so the service can be tested without a
// filesystem.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// FileWriter persists mutated sources. Optional; without one the service only
// returns rewritten text.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// OperationRecord is one row of the analysis history.
type OperationRecord struct {
	ID          string
	Timestamp   time.Time
	Operation   string
	File        string
	Language    string
	Duration    time.Duration
	Fallback    bool
	ResultCount int
	ErrorCode   string
}

// HistoryStore persists operation records for later inspection.
type HistoryStore interface {
	Save(record OperationRecord) error
	Recent(limit int) ([]OperationRecord, error)
}
