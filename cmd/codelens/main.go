// # cmd/codelens/main.go
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codelens/internal/core/config"
)

var (
	configPath   = flag.String("config", "./codelens.toml", "Path to config file")
	language     = flag.String("language", "", "Override language detection")
	kind         = flag.String("kind", "", "Element kind filter (function, class, method, type, ...)")
	contextLines = flag.Int("context", 0, "Context lines around extracted elements")
	write        = flag.Bool("write", false, "Persist replacements to disk")
	limit        = flag.Int("limit", 0, "Maximum search hits")
	ui           = flag.Bool("ui", false, "Browse the outline in a terminal UI")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

const usageText = `Usage: codelens [flags] <command> [args]

Commands:
  outline  <file>                      structural outline of a source file
  extract  <file> <name>               locate and print a named element
  replace  <file> <name> <text-file>   swap the first matching element for the file's contents
  classify <file> <pattern>            label each occurrence of pattern in one file
  search   <root> <pattern>            classified pattern search across a tree
  languages                            registry, grammar availability and extensions
  history  [limit|operation]           recent operations from the history store
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Printf("codelens v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := new(slog.LevelVar)
	if *verbose {
		logLevel.Set(slog.LevelDebug)
	}

	output := os.Stderr
	if *ui {
		// In UI mode, keep logs off the terminal so they don't corrupt the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err == nil {
			if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600); err == nil {
				output = f
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, cfgPath, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !*verbose {
		logLevel.Set(parseLevel(cfg.Logging.Level))
	}
	if cfg.Logging.Format == "json" && !*ui {
		slog.SetDefault(slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: logLevel})))
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	app, err := newApp(cfg, cfgPath, logLevel)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	command := strings.ToLower(flag.Arg(0))
	if err := app.Run(command, flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig falls back to built-in defaults when no config file exists at
// the default location. An explicit -config path must exist. The returned
// path is empty when defaults are in use, which disables hot reload.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if os.IsNotExist(err) && path == "./codelens.toml" {
		return config.Default(), "", nil
	}
	return nil, "", err
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "codelens", "codelens.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "codelens", "codelens.log")
	}

	return "codelens.log"
}
