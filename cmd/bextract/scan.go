package bextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/redactyl/bextract/internal/audit"
	"github.com/redactyl/bextract/internal/metrics"
	"github.com/redactyl/bextract/internal/report"
	"github.com/redactyl/bextract/internal/source"
	"github.com/redactyl/bextract/pkg/bulk"
)

var (
	flagRecorders       string
	flagHistograms      bool
	flagCarve           bool
	flagContextWindow   int
	flagMaxBytes        int64
	flagThreads         int
	flagInclude         string
	flagExclude         string
	flagFormat          string
	flagNoCache         bool
	flagMetricsAddr     string
	flagText            string
	flagStdin           bool
	flagClipboard       bool
	flagImages          []string
	flagDefaultExcludes bool
	flagBaseline        string
	flagUpdateBaseline  bool
	flagNoAudit         bool

	flagArchives          bool
	flagMaxArchiveBytes   int64
	flagMaxEntries        int
	flagMaxDepth          int
	flagArchiveTimeBudget time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files, text, stdin, the clipboard or container images",
		Long:  "Scan submits every input to the engine and reports the features, histograms and carved objects found. With no input flags and no paths the current directory is scanned.",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagRecorders, "recorders", "", "only run these feature recorders (comma-separated)")
	cmd.Flags().BoolVar(&flagHistograms, "histograms", true, "report per-buffer feature histograms")
	cmd.Flags().BoolVar(&flagCarve, "carve", true, "carve embedded JPEG, PNG and GIF objects")
	cmd.Flags().IntVar(&flagContextWindow, "context-window", 16, "bytes of context reported on each side of a feature")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 64<<20, "skip inputs larger than this (0 = no limit)")
	cmd.Flags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format: text | table | json | sarif")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the scan")
	cmd.Flags().StringVar(&flagText, "text", "", "scan this literal text")
	cmd.Flags().BoolVar(&flagStdin, "stdin", false, "scan standard input")
	cmd.Flags().BoolVar(&flagClipboard, "clipboard", false, "scan the clipboard contents")
	cmd.Flags().StringArrayVar(&flagImages, "image", nil, "scan the layers of a registry image (repeatable)")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "skip VCS, dependency and bextract state directories")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "bextract.baseline.json", "hide events recorded in this baseline")
	cmd.Flags().BoolVar(&flagUpdateBaseline, "update-baseline", false, "write the current events to --baseline instead of filtering")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "do not append this scan to the audit log")
	// archive expansion
	cmd.Flags().BoolVar(&flagArchives, "archives", false, "expand zip, jar, tar, tar.gz and gz files into their members")
	cmd.Flags().Int64Var(&flagMaxArchiveBytes, "max-archive-bytes", 256<<20, "max decompressed bytes per archive")
	cmd.Flags().IntVar(&flagMaxEntries, "max-entries", 10000, "max members submitted per archive")
	cmd.Flags().IntVar(&flagMaxDepth, "max-depth", 2, "max nesting depth for archives inside archives")
	cmd.Flags().DurationVar(&flagArchiveTimeBudget, "archive-time-budget", 30*time.Second, "time budget per archive")
}

func runScan(cmd *cobra.Command, args []string) error {
	fc := effective
	lib, err := openLibrary(fc)
	if err != nil {
		return err
	}

	filter := source.Filter{
		Include:         valueOr(fc.Include, ""),
		Exclude:         valueOr(fc.Exclude, ""),
		MaxBytes:        valueOr(fc.MaxBytes, 64<<20),
		DefaultExcludes: flagDefaultExcludes,
	}
	if valueOr(fc.Archives, false) {
		budget := fc.GetArchiveTimeBudget()
		if fc.ArchiveTimeBudget == nil {
			budget = flagArchiveTimeBudget
		}
		filter.Archives = &source.Limits{
			MaxArchiveBytes: valueOr(fc.MaxArchiveBytes, flagMaxArchiveBytes),
			MaxEntries:      valueOr(fc.MaxEntries, flagMaxEntries),
			MaxDepth:        valueOr(fc.MaxDepth, flagMaxDepth),
			TimeBudget:      budget,
		}
	}
	paths := args
	if len(paths) == 0 && flagText == "" && !flagStdin && !flagClipboard && len(flagImages) == 0 {
		paths = []string{"."}
	}
	produce := inputsFor(cmd.InOrStdin(), paths, filter)

	opts := pipelineOptions{
		Threads:     valueOr(fc.Threads, 0),
		Fingerprint: fingerprint(fc),
		Metrics:     metrics.New(),
	}
	if !valueOr(fc.NoCache, false) && len(paths) > 0 {
		if root, err := cacheRoot(paths[0]); err == nil {
			opts.CacheRoot = root
		}
	}

	if addr := valueOr(fc.MetricsAddr, ""); addr != "" {
		stop := serveMetrics(addr, opts.Metrics)
		defer stop()
	}

	res, err := runPipeline(cmd.Context(), lib, produce, opts)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	slog.Info("scan finished", "inputs", res.Inputs, "cached", res.Cached, "failed", res.Failed, "events", len(res.Records), "duration", res.Duration)

	records := res.Records
	baselineFile := ""
	if flagUpdateBaseline {
		if err := report.SaveBaseline(flagBaseline, records); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Baseline updated:", flagBaseline)
	} else if base, err := report.LoadBaseline(flagBaseline); err == nil {
		records = report.FilterNew(records, base)
		baselineFile = flagBaseline
	} else if !os.IsNotExist(err) {
		slog.Warn("baseline ignored", "path", flagBaseline, "err", err)
	}
	if records == nil {
		records = []bulk.Record{}
	}

	if root := auditRoot(paths); root != "" && !flagNoAudit {
		rec := audit.CreateScanRecord(root, lib.Name(), res.Records, records, audit.Stats{
			Inputs: res.Inputs, Cached: res.Cached, Failed: res.Failed, Bytes: res.Bytes, Duration: res.Duration,
		}, baselineFile)
		if err := audit.NewAuditLog(root).LogScan(rec); err != nil {
			slog.Warn("audit record not written", "root", root, "err", err)
		}
	}

	out := cmd.OutOrStdout()
	popts := report.PrintOptions{
		NoColor:       !report.ColorEnabled(out, valueOr(fc.NoColor, false)),
		Duration:      res.Duration,
		InputsScanned: res.Inputs + res.Cached,
		BytesScanned:  res.Bytes,
	}
	switch valueOr(fc.Format, "table") {
	case "json":
		return report.WriteJSON(out, records)
	case "sarif":
		return report.WriteSARIF(out, records, version)
	case "text":
		report.PrintText(out, records, popts)
		return nil
	default:
		return report.PrintTable(out, records, popts)
	}
}

// inputsFor combines the input flags into one producer. Literal inputs go
// first, then images, then paths.
func inputsFor(stdin io.Reader, paths []string, filter source.Filter) producer {
	return func(ctx context.Context, emit func(source.Input) error) error {
		if flagText != "" {
			if err := emit(source.Text("text", flagText)); err != nil {
				return err
			}
		}
		if flagStdin {
			in, err := source.Reader("stdin", stdin, filter.MaxBytes)
			if err != nil {
				return err
			}
			if err := emit(in); err != nil {
				return err
			}
		}
		if flagClipboard {
			in, err := source.Clipboard()
			if err != nil {
				return err
			}
			if err := emit(in); err != nil {
				return err
			}
		}
		for _, ref := range flagImages {
			if err := source.Image(ctx, ref, filter, emit); err != nil {
				return err
			}
		}
		if len(paths) > 0 {
			return source.Files(ctx, paths, filter, emit)
		}
		return nil
	}
}

// cacheRoot is the directory cache files are written to: p itself when it is
// a directory, its parent otherwise.
func cacheRoot(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		abs = filepath.Dir(abs)
	}
	return abs, nil
}

// auditRoot is where the audit log for a scan of paths lives; empty when the
// scan had no filesystem paths.
func auditRoot(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	root, err := cacheRoot(paths[0])
	if err != nil {
		return ""
	}
	return root
}

// serveMetrics exposes m on addr until the returned stop func runs.
func serveMetrics(addr string, m *metrics.Metrics) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
