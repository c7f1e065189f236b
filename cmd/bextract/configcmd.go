package bextract

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/redactyl/bextract/internal/config"
)

var (
	cfgOutput     string
	cfgEngine     string
	cfgRecorders  string
	cfgThreads    int
	cfgMaxBytes   int64
	cfgNoCarve    bool
	cfgForce      bool
	cfgLogLevel   string
	cfgFormatInit string
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (CLI > local > global)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := yaml.Marshal(&effective)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cfgCmd.AddCommand(show)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .bextract.yml",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".bextract.yml", "output file path")
	initCmd.Flags().StringVar(&cfgEngine, "with-engine", config.EngineBuiltin, "engine to record: builtin | native")
	initCmd.Flags().StringVar(&cfgRecorders, "with-recorders", "", "comma-separated recorders to enable (empty = all)")
	initCmd.Flags().IntVar(&cfgThreads, "with-threads", 0, "worker threads (0 = GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "with-max-bytes", 64<<20, "skip inputs larger than this")
	initCmd.Flags().BoolVar(&cfgNoCarve, "no-carve", false, "disable carving by default")
	initCmd.Flags().StringVar(&cfgLogLevel, "with-log-level", "warn", "default log level")
	initCmd.Flags().StringVar(&cfgFormatInit, "with-format", "table", "default output format")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s exists (use --force to overwrite)", cfgOutput)
	}
	fc := config.FileConfig{
		Engine:     ptr(cfgEngine),
		Histograms: ptr(true),
		Carve:      ptr(!cfgNoCarve),
		MaxBytes:   ptr(cfgMaxBytes),
		Format:     ptr(cfgFormatInit),
		LogLevel:   ptr(cfgLogLevel),
	}
	if cfgRecorders != "" {
		fc.Recorders = ptr(cfgRecorders)
	}
	if cfgThreads != 0 {
		fc.Threads = ptr(cfgThreads)
	}
	if cfgEngine == config.EngineNative {
		fc.Library = ptr(config.DefaultLibrary)
	}
	if err := fc.Validate(); err != nil {
		return err
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}
