// # cmd/codelens/app_test.go
package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"codelens/internal/core/config"
	"codelens/internal/engine/parser"
	"codelens/internal/shared/util"
)

func boolPtr(v bool) *bool { return &v }

func TestRegistryFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = map[string]config.Language{
		"rust":   {Enabled: boolPtr(true)},
		"python": {Extensions: []string{".py", ".pyw"}},
		"go":     {Enabled: boolPtr(false)},
		"kotlin": {Extensions: []string{".kt"}},
	}

	registry := registryFromConfig(cfg)

	if !registry["rust"].Enabled {
		t.Error("rust should be enabled by the override")
	}
	if registry["go"].Enabled {
		t.Error("go should be disabled by the override")
	}
	if got := registry["python"].Extensions; len(got) != 2 || got[1] != ".pyw" {
		t.Errorf("python extensions = %v", got)
	}
	if !registry["javascript"].Enabled {
		t.Error("untouched languages keep their defaults")
	}

	// unknown keys come in as fallback-only entries
	spec, ok := registry["kotlin"]
	if !ok {
		t.Fatal("kotlin missing from registry")
	}
	if spec.Enabled || spec.Grammar {
		t.Errorf("kotlin spec = %+v, want fallback-only", spec)
	}

	loader := parser.NewGrammarLoader(registry)
	if got := loader.DetectLanguage("app.kt"); got != "kotlin" {
		t.Errorf("DetectLanguage(.kt) = %q", got)
	}
	if got := loader.DetectLanguage("script.pyw"); got != "python" {
		t.Errorf("DetectLanguage(.pyw) = %q", got)
	}
}

func TestNewAppWiresHistory(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.DB.Enabled = true
	cfg.DB.Path = tmpDir + "/history.db"

	a, err := newApp(cfg, "", new(slog.LevelVar))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.store == nil {
		t.Fatal("history store should be open when db.enabled is set")
	}
	if a.service == nil {
		t.Fatal("service not wired")
	}

	status := a.healthCheck(t.Context())
	if status.Status != "up" || status.Languages == 0 {
		t.Errorf("health = %+v", status)
	}
}

func TestNewAppWithoutHistory(t *testing.T) {
	a, err := newApp(config.Default(), "", new(slog.LevelVar))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.store != nil {
		t.Error("history store should stay nil when db is disabled")
	}
	if a.watcher != nil {
		t.Error("no config file means nothing to watch")
	}
	if err := a.Run("history", nil); err == nil {
		t.Error("history command should fail without a store")
	}
}

func TestLanguagesCommand(t *testing.T) {
	a, err := newApp(config.Default(), "", new(slog.LevelVar))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.Run("languages", nil); err != nil {
		t.Fatalf("languages: %v", err)
	}
}

func TestApplyConfig(t *testing.T) {
	level := new(slog.LevelVar)
	a := &app{logLevel: level, limiter: util.NewLimiter(1, 1)}

	updated := config.Default()
	updated.Logging.Level = "error"
	updated.Rate.PerSecond = 10000
	updated.Rate.Burst = 100
	a.applyConfig(updated)

	if level.Level() != slog.LevelError {
		t.Errorf("level = %v, want error", level.Level())
	}

	// the limiter picks up the widened rate without being recreated
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 20; i++ {
		if err := a.limiter.Wait(ctx, 1); err != nil {
			t.Fatalf("wait %d after reload: %v", i, err)
		}
	}
}
