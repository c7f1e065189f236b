package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape. Nil fields were not
// set and defer to the next source in precedence order.
type FileConfig struct {
	Engine        *string `yaml:"engine"`
	Library       *string `yaml:"library"`
	Recorders     *string `yaml:"recorders"`
	Histograms    *bool   `yaml:"histograms"`
	Carve         *bool   `yaml:"carve"`
	ContextWindow *int    `yaml:"context_window"`
	MaxBytes      *int64  `yaml:"max_bytes"`
	Threads       *int    `yaml:"threads"`
	Include       *string `yaml:"include"`
	Exclude       *string `yaml:"exclude"`
	Format        *string `yaml:"format"`
	NoColor       *bool   `yaml:"no_color"`
	NoCache       *bool   `yaml:"no_cache"`
	LogLevel      *string `yaml:"log_level"`
	LogFormat     *string `yaml:"log_format"`
	MetricsAddr   *string `yaml:"metrics_addr"`

	Archives          *bool   `yaml:"archives"`
	MaxArchiveBytes   *int64  `yaml:"max_archive_bytes"`
	MaxEntries        *int    `yaml:"max_entries"`
	MaxDepth          *int    `yaml:"max_depth"`
	ArchiveTimeBudget *string `yaml:"archive_time_budget"`
}

// Engine names accepted by the engine key.
const (
	EngineBuiltin = "builtin"
	EngineNative  = "native"
)

// DefaultLibrary is where the native engine is looked up when no library
// path is configured.
const DefaultLibrary = "./libbulk_extractor.so"

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a config file in the given root.
// It supports .bextract.yml/.yaml and bextract.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".bextract.yml", ".bextract.yaml", "bextract.yml", "bextract.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "bextract", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// Validate rejects values no command can act on.
func (fc FileConfig) Validate() error {
	if fc.Engine != nil && *fc.Engine != EngineBuiltin && *fc.Engine != EngineNative {
		return fmt.Errorf("engine must be %q or %q, got %q", EngineBuiltin, EngineNative, *fc.Engine)
	}
	if fc.Format != nil {
		switch *fc.Format {
		case "text", "table", "json", "sarif":
		default:
			return fmt.Errorf("format must be one of text, table, json, sarif; got %q", *fc.Format)
		}
	}
	if fc.Threads != nil && *fc.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", *fc.Threads)
	}
	if fc.ArchiveTimeBudget != nil {
		if _, err := time.ParseDuration(*fc.ArchiveTimeBudget); err != nil {
			return fmt.Errorf("archive_time_budget: %w", err)
		}
	}
	if fc.ContextWindow != nil && *fc.ContextWindow < 0 {
		return fmt.Errorf("context_window must be >= 0, got %d", *fc.ContextWindow)
	}
	return nil
}

// GetEngine returns the configured engine or the builtin default.
func (fc FileConfig) GetEngine() string {
	if fc.Engine == nil || *fc.Engine == "" {
		return EngineBuiltin
	}
	return *fc.Engine
}

// GetLibrary returns the native library path or DefaultLibrary.
func (fc FileConfig) GetLibrary() string {
	if fc.Library == nil || *fc.Library == "" {
		return DefaultLibrary
	}
	return *fc.Library
}

// GetArchiveTimeBudget returns the parsed archive time budget, zero when
// unset.
func (fc FileConfig) GetArchiveTimeBudget() time.Duration {
	if fc.ArchiveTimeBudget == nil {
		return 0
	}
	d, _ := time.ParseDuration(*fc.ArchiveTimeBudget)
	return d
}
