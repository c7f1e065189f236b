package bextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redactyl/bextract/internal/cache"
	"github.com/redactyl/bextract/internal/metrics"
	"github.com/redactyl/bextract/internal/source"
	"github.com/redactyl/bextract/pkg/bulk"
)

// producer emits every input of one scan.
type producer func(ctx context.Context, emit func(source.Input) error) error

type pipelineOptions struct {
	Threads int
	// CacheRoot enables the incremental cache when non-empty.
	CacheRoot   string
	Fingerprint string
	Metrics     *metrics.Metrics
}

type pipelineResult struct {
	Records  []bulk.Record
	Inputs   int
	Cached   int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// runPipeline fans inputs out to Threads workers. Each worker owns one
// session for its lifetime; one session is never shared between goroutines.
func runPipeline(ctx context.Context, lib bulk.Library, produce producer, opts pipelineOptions) (pipelineResult, error) {
	start := time.Now()
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	var (
		db   cache.DB
		last cache.ScanResults
	)
	useCache := opts.CacheRoot != ""
	if useCache {
		db, _ = cache.Load(opts.CacheRoot)
		last, _ = cache.LoadResults(opts.CacheRoot)
	}
	cacheKey := func(name string) string { return opts.Fingerprint + "|" + name }

	// The saved cache holds only what this run analyzed or carried over, so
	// hashes and results always describe the same settings and the same run.
	var (
		mu      sync.Mutex
		res     pipelineResult
		nextDB  = cache.New()
		results = cache.NewResults(opts.Fingerprint)
	)
	inputs := make(chan source.Input)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < threads; i++ {
		g.Go(func() error {
			return work(lib, inputs, opts.Metrics, func(in source.Input, rs []bulk.Record, err error) {
				mu.Lock()
				defer mu.Unlock()
				res.Inputs++
				res.Bytes += int64(len(in.Data))
				if err != nil {
					res.Failed++
					return
				}
				res.Records = append(res.Records, rs...)
				if useCache {
					nextDB.Entries[cacheKey(in.Name)] = cache.Hash(in.Data)
					results.Add(in.Name, rs)
				}
			})
		})
	}

	g.Go(func() error {
		defer close(inputs)
		return produce(gctx, func(in source.Input) error {
			if useCache && db.Unchanged(cacheKey(in.Name), in.Data) {
				if prev, ok := last.Lookup(opts.Fingerprint, in.Name); ok {
					mu.Lock()
					res.Cached++
					res.Records = append(res.Records, prev...)
					nextDB.Entries[cacheKey(in.Name)] = db.Entries[cacheKey(in.Name)]
					results.Add(in.Name, prev)
					mu.Unlock()
					return nil
				}
			}
			select {
			case inputs <- in:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)

	if useCache {
		if err := cache.Save(opts.CacheRoot, nextDB); err != nil {
			slog.Warn("cache not saved", "root", opts.CacheRoot, "err", err)
		}
		if err := cache.SaveResults(opts.CacheRoot, results); err != nil {
			slog.Warn("scan results not saved", "root", opts.CacheRoot, "err", err)
		}
	}
	return res, nil
}

// work drains inputs through one session. An aborted analysis is reported
// and the worker moves on; any other submit failure stops the scan.
func work(lib bulk.Library, inputs <-chan source.Input, m *metrics.Metrics, done func(source.Input, []bulk.Record, error)) error {
	var (
		current string
		batch   []bulk.Record
	)
	record := func(e bulk.Event) bulk.Status {
		batch = append(batch, bulk.ToRecord(current, e))
		return bulk.Continue
	}
	hs := bulk.Handlers{
		Feature:   func(ev bulk.FeatureEvent) bulk.Status { return record(ev) },
		Histogram: func(ev bulk.HistogramEvent) bulk.Status { return record(ev) },
		Carve:     func(ev bulk.CarveEvent) bulk.Status { return record(ev) },
	}
	if m != nil {
		hs = bulk.Chain(m.Handlers(), hs)
	}

	return bulk.With(lib, hs, func(h *bulk.Handle) error {
		slog.Debug("worker started", "session", h.ID(), "engine", lib.Name())
		for in := range inputs {
			current, batch = in.Name, nil
			t := time.Now()
			err := h.Submit(in.Data)
			if m != nil {
				m.ObserveAnalysis(len(in.Data), time.Since(t), err)
			}
			var ae *bulk.AnalysisError
			switch {
			case err == nil:
			case errors.As(err, &ae):
				slog.Warn("analysis aborted", "source", in.Name, "status", ae.Code)
			default:
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			done(in, batch, err)
		}
		return nil
	})
}
