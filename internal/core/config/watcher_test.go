package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codelens.toml")
	if err := os.WriteFile(path, []byte("version = 1\n[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan *Config, 4)
	w := NewWatcher(path, 10*time.Millisecond, func(c *Config) {
		reloads <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// give the fsnotify registration a moment before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("version = 1\n[logging]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloads:
		if cfg.Logging.Level != "error" {
			t.Errorf("reloaded level = %q, want error", cfg.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}
}

func TestWatcherSkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codelens.toml")
	if err := os.WriteFile(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan *Config, 4)
	w := NewWatcher(path, 10*time.Millisecond, func(c *Config) {
		reloads <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	// fails validation, so the callback must not fire
	if err := os.WriteFile(path, []byte("version = 99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloads:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherDebounceDefault(t *testing.T) {
	w := NewWatcher("codelens.toml", 0, nil)
	if w.debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want the [watch] default", w.debounce)
	}
}
