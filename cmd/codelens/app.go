// # cmd/codelens/app.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"codelens/internal/core/config"
	"codelens/internal/core/ports"
	"codelens/internal/core/service"
	"codelens/internal/data/history"
	"codelens/internal/engine/outline"
	"codelens/internal/engine/parser"
	"codelens/internal/shared/observability"
	"codelens/internal/shared/util"
	"codelens/internal/ui/cli"
	"codelens/internal/workspace"
)

type app struct {
	cfg      *config.Config
	loader   *parser.GrammarLoader
	service  ports.AnalysisService
	store    *history.Store
	obs      *cli.ObservabilityServer
	limiter  *util.Limiter
	watcher  *config.Watcher
	logLevel *slog.LevelVar
	shutdown func(context.Context) error
}

func newApp(cfg *config.Config, cfgPath string, logLevel *slog.LevelVar) (*app, error) {
	loader := parser.NewGrammarLoader(registryFromConfig(cfg))

	scanner, err := workspace.NewScanner(loader, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, loader: loader, logLevel: logLevel}

	opts := []service.Option{}
	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.store = store
		opts = append(opts, service.WithHistory(history.NewAdapter(store)))
	}
	if cfg.Rate.PerSecond > 0 {
		a.limiter = util.NewLimiter(cfg.Rate.PerSecond, cfg.Rate.Burst)
		opts = append(opts, service.WithLimiter(a.limiter))
	}

	opts = append(opts, service.WithWriter(workspace.Writer{}))
	a.service = service.New(loader, workspace.Reader{}, scanner, cfg.Analysis, opts...)

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := setupTracing(cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing setup failed", "error", err)
		} else {
			a.shutdown = shutdown
		}
	}
	if cfg.Observability.MetricsAddress != "" {
		a.obs = cli.NewObservabilityServer(cfg.Observability.MetricsAddress, a.healthCheck)
		if err := a.obs.Start(context.Background()); err != nil {
			slog.Warn("observability server failed to start", "error", err)
		}
	}

	// Hot reload only matters while the process stays up: the UI browser and
	// the observability-server mode. One-shot commands read config once.
	if cfgPath != "" && (*ui || cfg.Observability.MetricsAddress != "") {
		a.watcher = config.NewWatcher(cfgPath, cfg.Watch.Debounce, a.applyConfig)
		if err := a.watcher.Start(context.Background()); err != nil {
			slog.Warn("config watcher failed to start", "error", err)
			a.watcher = nil
		}
	}

	return a, nil
}

// applyConfig applies the runtime-adjustable settings from a reloaded config:
// log level (unless -verbose pins debug) and the rate limit. Language and
// analysis settings stay fixed for the process lifetime.
func (a *app) applyConfig(updated *config.Config) {
	if a.logLevel != nil && !*verbose {
		a.logLevel.Set(parseLevel(updated.Logging.Level))
	}
	if a.limiter != nil && updated.Rate.PerSecond > 0 {
		a.limiter.SetRate(updated.Rate.PerSecond, updated.Rate.Burst)
	}
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.obs != nil {
		_ = a.obs.Stop(ctx)
	}
	if a.shutdown != nil {
		_ = a.shutdown(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *app) healthCheck(ctx context.Context) cli.HealthStatus {
	return cli.HealthStatus{
		Status:    "up",
		Version:   VERSION,
		Languages: len(a.loader.Registry()),
	}
}

func (a *app) Run(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "outline":
		if len(args) != 1 {
			return fmt.Errorf("usage: codelens outline <file>")
		}
		report, err := a.service.Outline(ctx, ports.OutlineRequest{
			Path:     args[0],
			Language: *language,
		})
		if err != nil {
			return err
		}
		if *ui {
			return runOutlineUI(report)
		}
		return printJSON(report)

	case "extract":
		if len(args) != 2 {
			return fmt.Errorf("usage: codelens extract <file> <name>")
		}
		report, err := a.service.ExtractElement(ctx, ports.ExtractRequest{
			Path:         args[0],
			Name:         args[1],
			Kind:         outline.Kind(*kind),
			ContextLines: *contextLines,
			Language:     *language,
		})
		if err != nil {
			return err
		}
		return printJSON(report)

	case "replace":
		if len(args) != 3 {
			return fmt.Errorf("usage: codelens replace <file> <name> <text-file>")
		}
		newText, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("read replacement text: %w", err)
		}
		report, err := a.service.ReplaceElement(ctx, ports.ReplaceRequest{
			Path:     args[0],
			Name:     args[1],
			Kind:     outline.Kind(*kind),
			NewText:  string(newText),
			Language: *language,
			Write:    *write,
		})
		if err != nil {
			return err
		}
		if !*write {
			fmt.Print(report.NewSource)
			return nil
		}
		return printJSON(report)

	case "classify":
		if len(args) != 2 {
			return fmt.Errorf("usage: codelens classify <file> <pattern>")
		}
		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		hits := workspace.SearchFile(args[0], source, args[1])
		report, err := a.service.ClassifyHits(ctx, ports.ClassifyRequest{
			Path:     args[0],
			Pattern:  args[1],
			Hits:     hits,
			Language: *language,
		})
		if err != nil {
			return err
		}
		return printJSON(report)

	case "search":
		if len(args) != 2 {
			return fmt.Errorf("usage: codelens search <root> <pattern>")
		}
		report, err := a.service.Search(ctx, ports.SearchRequest{
			Root:     args[0],
			Pattern:  args[1],
			Language: *language,
			Limit:    *limit,
		})
		if err != nil {
			return err
		}
		return printJSON(report)

	case "languages":
		type languageInfo struct {
			ID         string   `json:"id"`
			Enabled    bool     `json:"enabled"`
			Grammar    bool     `json:"grammar"`
			Extensions []string `json:"extensions"`
		}
		registry := a.loader.Registry()
		out := struct {
			Languages  []languageInfo `json:"languages"`
			Extensions []string       `json:"extensions"`
		}{Extensions: a.loader.SupportedExtensions()}
		for _, id := range util.SortedStringKeys(registry) {
			spec := registry[id]
			_, grammar := a.loader.Language(id)
			out.Languages = append(out.Languages, languageInfo{
				ID:         id,
				Enabled:    spec.Enabled,
				Grammar:    grammar,
				Extensions: spec.Extensions,
			})
		}
		return printJSON(out)

	case "history":
		if a.store == nil {
			return fmt.Errorf("history store is disabled; set db.enabled=true")
		}
		n := 20
		operation := ""
		if len(args) == 1 {
			// a numeric argument is a limit, anything else filters by operation
			if parsed, err := strconv.Atoi(args[0]); err == nil {
				if parsed <= 0 {
					return fmt.Errorf("history limit must be a positive integer")
				}
				n = parsed
			} else {
				operation = args[0]
			}
		}
		records, err := a.store.RecentByOperation(operation, n)
		if err != nil {
			return err
		}
		return printJSON(records)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func setupTracing(endpoint string) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return observability.Setup(ctx, endpoint, VERSION)
}

// registryFromConfig overlays [languages] settings on the built-in registry.
// Unknown language keys are added as fallback-only entries.
func registryFromConfig(cfg *config.Config) map[string]parser.LanguageSpec {
	registry := parser.DefaultRegistry()
	for id, override := range cfg.Languages {
		spec, ok := registry[id]
		if !ok {
			spec = parser.LanguageSpec{}
		}
		spec.Enabled = override.IsEnabled(spec.Enabled)
		if len(override.Extensions) > 0 {
			spec.Extensions = append([]string(nil), override.Extensions...)
		}
		registry[id] = spec
	}
	return registry
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
