package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"codelens/internal/core/config"
	"codelens/internal/core/errors"
	"codelens/internal/core/ports"
	"codelens/internal/engine/classify"
	"codelens/internal/engine/element"
	"codelens/internal/engine/fallback"
	"codelens/internal/engine/outline"
	"codelens/internal/engine/parser"
	"codelens/internal/shared/observability"
	"codelens/internal/shared/util"
	"codelens/internal/workspace"
)

// Analyzer implements the driving port. Every operation tries the syntax
// tree first and degrades to the regex fallback when no grammar serves the
// language or the parse blows up. The choice is surfaced in each report.
type Analyzer struct {
	loader  *parser.GrammarLoader
	parser  *parser.Parser
	reader  ports.FileReader
	writer  ports.FileWriter
	scanner *workspace.Scanner
	history ports.HistoryStore
	limiter *util.Limiter
	cfg     config.Analysis
	log     *slog.Logger
}

type Option func(*Analyzer)

func WithHistory(store ports.HistoryStore) Option {
	return func(a *Analyzer) { a.history = store }
}

func WithLimiter(l *util.Limiter) Option {
	return func(a *Analyzer) { a.limiter = l }
}

func WithWriter(w ports.FileWriter) Option {
	return func(a *Analyzer) { a.writer = w }
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

func New(loader *parser.GrammarLoader, reader ports.FileReader, scanner *workspace.Scanner, cfg config.Analysis, opts ...Option) *Analyzer {
	a := &Analyzer{
		loader:  loader,
		parser:  parser.NewParser(loader),
		reader:  reader,
		scanner: scanner,
		cfg:     cfg,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Outline(ctx context.Context, req ports.OutlineRequest) (ports.OutlineReport, error) {
	const op = "outline"
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "analyzer.outline",
		trace.WithAttributes(attribute.String("file", req.Path)))
	defer span.End()

	report := ports.OutlineReport{File: req.Path}
	if err := a.admit(ctx, op); err != nil {
		return report, a.finish(op, callID, req.Path, "", start, false, 0, err)
	}

	source, language, err := a.load(req.Path, req.Language)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, false, 0, err)
	}
	report.Language = language

	maxDepth := req.MaxDepth
	if maxDepth <= 0 {
		maxDepth = a.cfg.MaxDepth
	}

	entries, usedFallback, err := a.outlineSource(source, language, maxDepth)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, usedFallback, 0, err)
	}

	report.Outline = entries
	report.Count = len(entries)
	report.Fallback = usedFallback
	return report, a.finish(op, callID, req.Path, language, start, usedFallback, len(entries), nil)
}

func (a *Analyzer) ExtractElement(ctx context.Context, req ports.ExtractRequest) (ports.ExtractReport, error) {
	const op = "extract"
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "analyzer.extract",
		trace.WithAttributes(
			attribute.String("file", req.Path),
			attribute.String("element", req.Name)))
	defer span.End()

	report := ports.ExtractReport{File: req.Path, Name: req.Name, Kind: req.Kind}
	if err := a.admit(ctx, op); err != nil {
		return report, a.finish(op, callID, req.Path, "", start, false, 0, err)
	}

	source, language, err := a.load(req.Path, req.Language)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, false, 0, err)
	}

	contextLines := req.ContextLines
	if contextLines <= 0 {
		contextLines = a.cfg.ContextLines
	}

	results, usedFallback, err := a.extractSource(source, language, req.Name, req.Kind, contextLines)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, usedFallback, 0, err)
	}

	report.Found = len(results) > 0
	report.Results = results
	report.Fallback = usedFallback
	return report, a.finish(op, callID, req.Path, language, start, usedFallback, len(results), nil)
}

func (a *Analyzer) ReplaceElement(ctx context.Context, req ports.ReplaceRequest) (ports.ReplaceReport, error) {
	const op = "replace"
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "analyzer.replace",
		trace.WithAttributes(
			attribute.String("file", req.Path),
			attribute.String("element", req.Name)))
	defer span.End()

	report := ports.ReplaceReport{File: req.Path, Name: req.Name, Kind: req.Kind}
	if err := a.admit(ctx, op); err != nil {
		return report, a.finish(op, callID, req.Path, "", start, false, 0, err)
	}

	source, language, err := a.load(req.Path, req.Language)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, false, 0, err)
	}

	newSource, match, usedFallback, err := a.replaceSource(source, language, req.Name, req.Kind, req.NewText)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, usedFallback, 0, err)
	}

	report.StartLine = match.StartLine
	report.EndLine = match.EndLine
	report.Fallback = usedFallback
	report.NewSource = newSource

	if req.Write {
		if a.writer == nil {
			err := errors.New(errors.CodeInternal, "no file writer configured")
			return report, a.finish(op, callID, req.Path, language, start, usedFallback, 0, err)
		}
		if err := a.writer.WriteFile(req.Path, []byte(newSource)); err != nil {
			wrapped := errors.Wrap(err, errors.CodeInternal, "write replaced source")
			return report, a.finish(op, callID, req.Path, language, start, usedFallback, 0, wrapped)
		}
		report.Written = true
	}
	return report, a.finish(op, callID, req.Path, language, start, usedFallback, 1, nil)
}

func (a *Analyzer) ClassifyHits(ctx context.Context, req ports.ClassifyRequest) (ports.ClassifyReport, error) {
	const op = "classify"
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "analyzer.classify",
		trace.WithAttributes(
			attribute.String("file", req.Path),
			attribute.String("pattern", req.Pattern)))
	defer span.End()

	report := ports.ClassifyReport{File: req.Path, Pattern: req.Pattern}
	if err := a.admit(ctx, op); err != nil {
		return report, a.finish(op, callID, req.Path, "", start, false, 0, err)
	}

	source, language, err := a.load(req.Path, req.Language)
	if err != nil {
		return report, a.finish(op, callID, req.Path, language, start, false, 0, err)
	}

	report.Hits = a.classifySource(source, language, req.Pattern, req.Hits)
	for _, h := range report.Hits {
		observability.ClassificationsTotal.WithLabelValues(string(h.Classification)).Inc()
	}
	return report, a.finish(op, callID, req.Path, language, start, false, len(report.Hits), nil)
}

func (a *Analyzer) Search(ctx context.Context, req ports.SearchRequest) (ports.SearchReport, error) {
	const op = "search"
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "analyzer.search",
		trace.WithAttributes(
			attribute.String("root", req.Root),
			attribute.String("pattern", req.Pattern)))
	defer span.End()

	report := ports.SearchReport{Pattern: req.Pattern}
	if err := a.admit(ctx, op); err != nil {
		return report, a.finish(op, callID, req.Root, req.Language, start, false, 0, err)
	}
	if req.Pattern == "" {
		err := errors.New(errors.CodeValidation, "search pattern must not be empty")
		return report, a.finish(op, callID, req.Root, req.Language, start, false, 0, err)
	}
	if a.scanner == nil {
		err := errors.New(errors.CodeInternal, "no workspace scanner configured")
		return report, a.finish(op, callID, req.Root, req.Language, start, false, 0, err)
	}

	files, err := a.scanner.Scan(req.Root, req.Language)
	if err != nil {
		wrapped := errors.Wrap(err, errors.CodeInternal, "scan workspace")
		return report, a.finish(op, callID, req.Root, req.Language, start, false, 0, wrapped)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 1000
	}

	for _, file := range files {
		if len(report.Hits) >= limit {
			break
		}
		source, err := a.reader.ReadFile(file)
		if err != nil {
			a.log.Warn("skipping unreadable file", "call_id", callID, "path", file, "error", err)
			continue
		}
		hits := workspace.SearchFile(file, source, req.Pattern)
		if len(hits) == 0 {
			continue
		}
		report.Files++
		language := a.loader.DetectLanguage(file)
		classified := a.classifySource(source, language, req.Pattern, hits)
		for _, h := range classified {
			if len(report.Hits) >= limit {
				break
			}
			observability.ClassificationsTotal.WithLabelValues(string(h.Classification)).Inc()
			report.Hits = append(report.Hits, h)
		}
	}
	return report, a.finish(op, callID, req.Root, req.Language, start, false, len(report.Hits), nil)
}

// outlineSource runs the tree pass, falling back when the grammar is missing
// or the parse panics.
func (a *Analyzer) outlineSource(source []byte, language string, maxDepth int) (entries []outline.Entry, usedFallback bool, err error) {
	treeErr := a.withTree(source, language, func(tree *parser.Tree) {
		entries, _ = outline.ExtractWithDepth(tree.Root(), source, language, maxDepth)
	})
	if treeErr == nil {
		return entries, false, nil
	}
	if !a.cfg.FallbackEnabled || !errors.Recoverable(treeErr) {
		return nil, false, treeErr
	}

	observability.FallbackTotal.WithLabelValues("outline", language).Inc()
	entries, err = fallback.Outline(source, language)
	if err != nil {
		return nil, true, err
	}
	return entries, true, nil
}

func (a *Analyzer) extractSource(source []byte, language, name string, kind outline.Kind, contextLines int) (results []element.Result, usedFallback bool, err error) {
	treeErr := a.withTree(source, language, func(tree *parser.Tree) {
		results = element.Extract(tree.Root(), source, language, name, kind, contextLines)
	})
	if treeErr == nil {
		return results, false, nil
	}
	if !a.cfg.FallbackEnabled || !errors.Recoverable(treeErr) {
		return nil, false, treeErr
	}

	observability.FallbackTotal.WithLabelValues("extract", language).Inc()
	results, err = fallback.Extract(source, language, name, kind, contextLines)
	if err != nil {
		return nil, true, err
	}
	return results, true, nil
}

func (a *Analyzer) replaceSource(source []byte, language, name string, kind outline.Kind, newText string) (newSource string, match outline.Entry, usedFallback bool, err error) {
	treeErr := a.withTree(source, language, func(tree *parser.Tree) {
		matches := element.Find(tree.Root(), source, language, name, kind)
		if len(matches) == 0 {
			err = errors.New(errors.CodeNotFound,
				fmt.Sprintf("no element named %q", name))
			return
		}
		match = matches[0].Entry
		newSource, err = element.Replace(tree.Root(), source, language, name, kind, newText)
	})
	if treeErr == nil {
		return newSource, match, false, err
	}
	if !a.cfg.FallbackEnabled || !errors.Recoverable(treeErr) {
		return "", outline.Entry{}, false, treeErr
	}

	observability.FallbackTotal.WithLabelValues("replace", language).Inc()
	entries, ferr := fallback.Outline(source, language)
	if ferr != nil {
		return "", outline.Entry{}, true, ferr
	}
	for _, e := range entries {
		if e.Name == name && outline.Compatible(kind, e.Kind) {
			match = e
			break
		}
	}
	newSource, err = fallback.Replace(source, language, name, kind, newText)
	return newSource, match, true, err
}

func (a *Analyzer) classifySource(source []byte, language, pattern string, hits []classify.Hit) []classify.ClassifiedHit {
	tree, err := a.parseSafe(source, language)
	if err == nil && tree != nil {
		defer tree.Close()
		return classify.ClassifyAll(hits, pattern, language, tree.Root())
	}
	// No tree: the textual checks and regex patterns still classify.
	return classify.ClassifyAll(hits, pattern, language, nil)
}

// withTree parses, hands the tree to fn and closes it afterwards, converting
// panics out of the grammar layer into PARSE_FAILURE.
func (a *Analyzer) withTree(source []byte, language string, fn func(*parser.Tree)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeParseFailure,
				fmt.Sprintf("parser panic for language %s: %v", language, r))
		}
	}()

	tree, err := a.parseSafe(source, language)
	if err != nil {
		return err
	}
	defer tree.Close()
	fn(tree)
	return nil
}

func (a *Analyzer) parseSafe(source []byte, language string) (tree *parser.Tree, err error) {
	start := time.Now()
	defer func() {
		observability.ParseDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			tree = nil
			err = errors.New(errors.CodeParseFailure,
				fmt.Sprintf("parser panic for language %s: %v", language, r))
		}
	}()
	return a.parser.Parse(source, language)
}

func (a *Analyzer) load(path, languageOverride string) ([]byte, string, error) {
	language := languageOverride
	if language == "" {
		language = a.loader.DetectLanguage(path)
	}
	if language == "" {
		return nil, "", errors.New(errors.CodeNotSupported,
			fmt.Sprintf("cannot determine language for %s", path))
	}

	source, err := a.reader.ReadFile(path)
	if err != nil {
		return nil, language, errors.Wrap(err, errors.CodeNotFound,
			fmt.Sprintf("read %s", path))
	}
	return source, language, nil
}

func (a *Analyzer) admit(ctx context.Context, op string) error {
	if a.limiter == nil {
		return nil
	}
	if err := a.limiter.Wait(ctx, 1); err != nil {
		return errors.Wrap(err, errors.CodeValidation,
			fmt.Sprintf("rate limit exceeded for %s", op))
	}
	return nil
}

// finish records metrics, the history row and the structured log line for one
// operation, passing the operation error through.
func (a *Analyzer) finish(op, callID, path, language string, start time.Time, usedFallback bool, resultCount int, opErr error) error {
	elapsed := time.Since(start)

	status := "ok"
	errorCode := ""
	if opErr != nil {
		status = "error"
		errorCode = string(errors.CodeOf(opErr))
	}
	observability.OperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	observability.OperationsTotal.WithLabelValues(op, status).Inc()

	if a.history != nil {
		record := ports.OperationRecord{
			ID:          callID,
			Timestamp:   start.UTC(),
			Operation:   op,
			File:        path,
			Language:    language,
			Duration:    elapsed,
			Fallback:    usedFallback,
			ResultCount: resultCount,
			ErrorCode:   errorCode,
		}
		if err := a.history.Save(record); err != nil {
			observability.HistoryWriteErrorsTotal.Inc()
			a.log.Warn("history write failed", "call_id", callID, "error", err)
		}
	}

	if opErr != nil {
		a.log.Warn("operation failed",
			"call_id", callID, "operation", op, "path", path,
			"language", language, "duration", elapsed, "error", opErr)
		return opErr
	}
	a.log.Debug("operation completed",
		"call_id", callID, "operation", op, "path", path,
		"language", language, "duration", elapsed,
		"fallback", usedFallback, "results", resultCount)
	return nil
}
