package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int                 `toml:"version"`
	Languages     map[string]Language `toml:"languages"`
	Analysis      Analysis            `toml:"analysis"`
	Exclude       Exclude             `toml:"exclude"`
	DB            Database            `toml:"db"`
	Observability Observability       `toml:"observability"`
	Rate          Rate                `toml:"rate"`
	Logging       Logging             `toml:"logging"`
	Watch         Watch               `toml:"watch"`
}

// Language overrides one entry of the built-in grammar registry. A nil
// Enabled means "keep the registry default"; extensions replace the default
// set when non-empty.
type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
}

type Analysis struct {
	ContextLines    int  `toml:"context_lines"`
	MaxDepth        int  `toml:"max_depth"`
	FallbackEnabled bool `toml:"fallback_enabled"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
}

// Rate bounds operations per second across all callers. Zero disables
// limiting.
type Rate struct {
	PerSecond float64 `toml:"per_second"`
	Burst     int     `toml:"burst"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysis(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateRate(&cfg); err != nil {
		return nil, err
	}
	if err := validateLogging(&cfg); err != nil {
		return nil, err
	}
	if err := validateLanguages(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Analysis.MaxDepth <= 0 {
		cfg.Analysis.MaxDepth = 512
	}
	if cfg.Analysis.ContextLines < 0 {
		cfg.Analysis.ContextLines = 0
	}
	if cfg.Version <= 1 && !cfg.Analysis.FallbackEnabled {
		// v1 files predate the toggle; fallback was always on.
		cfg.Analysis.FallbackEnabled = true
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{
			"node_modules", ".git", "vendor", "dist", "build", "__pycache__", "target",
		}
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Rate.Burst <= 0 {
		cfg.Rate.Burst = 10
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Logging.Format) == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 2 {
		return fmt.Errorf("unsupported config version %d; supported versions are 1 and 2", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.MaxDepth < 16 {
		return fmt.Errorf("analysis.max_depth must be >= 16, got %d", cfg.Analysis.MaxDepth)
	}
	if cfg.Analysis.ContextLines > 1000 {
		return fmt.Errorf("analysis.context_lines must be <= 1000, got %d", cfg.Analysis.ContextLines)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled=true")
	}
	return nil
}

func validateRate(cfg *Config) error {
	if cfg.Rate.PerSecond < 0 {
		return fmt.Errorf("rate.per_second must be >= 0, got %v", cfg.Rate.PerSecond)
	}
	return nil
}

func validateLogging(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be one of: text, json")
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	for language, settings := range cfg.Languages {
		if strings.TrimSpace(language) == "" {
			return fmt.Errorf("languages key must not be empty")
		}
		for _, ext := range settings.Extensions {
			trimmed := strings.TrimSpace(ext)
			if trimmed == "" {
				return fmt.Errorf("languages.%s.extensions must not include empty values", language)
			}
			if !strings.HasPrefix(trimmed, ".") {
				return fmt.Errorf("languages.%s extension %q must start with a dot", language, ext)
			}
		}
	}
	return nil
}

// IsEnabled resolves the tri-state toggle against a registry default.
func (l Language) IsEnabled(registryDefault bool) bool {
	if l.Enabled == nil {
		return registryDefault
	}
	return *l.Enabled
}
