package bextract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/redactyl/bextract/internal/config"
	"github.com/redactyl/bextract/internal/logging"
)

var (
	flagConfig    string
	flagEngine    string
	flagLibrary   string
	flagNoColor   bool
	flagLogLevel  string
	flagLogFormat string

	// effective is the merged configuration resolved before every command.
	effective config.FileConfig
)

// rootCmd is the base Cobra command for the bextract CLI.
var rootCmd = &cobra.Command{
	Use:               "bextract",
	Short:             "Extract features from buffers with bulk_extractor",
	Long:              "bextract submits files, text, clipboard contents or container image layers to a bulk_extractor engine and reports the features, histograms and carved objects it finds.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: resolveConfig,
}

// Execute runs the bextract CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (skips local and global lookup)")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", config.EngineBuiltin, "engine: builtin | native")
	rootCmd.PersistentFlags().StringVar(&flagLibrary, "library", config.DefaultLibrary, "path to libbulk_extractor for --engine native")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug | info | warn | error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format: text | json")
}

// resolveConfig merges global, local and flag configuration (CLI > local >
// global) and installs the logger.
func resolveConfig(cmd *cobra.Command, _ []string) error {
	fc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	effective = fc
	logging.Init(valueOr(fc.LogFormat, "text"), logging.ParseLevel(valueOr(fc.LogLevel, "warn")))
	return nil
}

func loadConfig(cmd *cobra.Command) (config.FileConfig, error) {
	var base config.FileConfig
	if flagConfig != "" {
		c, err := config.LoadFile(flagConfig)
		if err != nil {
			return base, err
		}
		base = c
	} else {
		if c, err := config.LoadGlobal(); err == nil {
			base = c
		} else {
			slog.Debug("global config not used", "reason", err)
		}
		abs, _ := filepath.Abs(".")
		if c, err := config.LoadLocal(abs); err == nil {
			base = config.Merge(base, c)
		} else {
			slog.Debug("local config not used", "root", abs, "reason", err)
		}
	}
	fc := config.Merge(base, flagsConfig(cmd))
	if err := fc.Validate(); err != nil {
		return fc, err
	}
	return fc, nil
}

// flagsConfig returns the flags the user set explicitly. Unset flags stay nil
// so file configuration shows through.
func flagsConfig(cmd *cobra.Command) config.FileConfig {
	var fc config.FileConfig
	f := cmd.Flags()
	set := func(name string) bool { return f.Lookup(name) != nil && f.Changed(name) }
	if set("engine") {
		fc.Engine = &flagEngine
	}
	if set("library") {
		fc.Library = &flagLibrary
	}
	if set("no-color") {
		fc.NoColor = &flagNoColor
	}
	if set("log-level") {
		fc.LogLevel = &flagLogLevel
	}
	if set("log-format") {
		fc.LogFormat = &flagLogFormat
	}
	if set("recorders") {
		fc.Recorders = &flagRecorders
	}
	if set("histograms") {
		fc.Histograms = &flagHistograms
	}
	if set("carve") {
		fc.Carve = &flagCarve
	}
	if set("context-window") {
		fc.ContextWindow = &flagContextWindow
	}
	if set("max-bytes") {
		fc.MaxBytes = &flagMaxBytes
	}
	if set("threads") {
		fc.Threads = &flagThreads
	}
	if set("include") {
		fc.Include = &flagInclude
	}
	if set("exclude") {
		fc.Exclude = &flagExclude
	}
	if set("format") {
		fc.Format = &flagFormat
	}
	if set("no-cache") {
		fc.NoCache = &flagNoCache
	}
	if set("metrics-addr") {
		fc.MetricsAddr = &flagMetricsAddr
	}
	if set("archives") {
		fc.Archives = &flagArchives
	}
	if set("max-archive-bytes") {
		fc.MaxArchiveBytes = &flagMaxArchiveBytes
	}
	if set("max-entries") {
		fc.MaxEntries = &flagMaxEntries
	}
	if set("max-depth") {
		fc.MaxDepth = &flagMaxDepth
	}
	if set("archive-time-budget") {
		fc.ArchiveTimeBudget = ptr(flagArchiveTimeBudget.String())
	}
	return fc
}
