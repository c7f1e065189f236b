package bextract

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redactyl/bextract/internal/metrics"
	"github.com/redactyl/bextract/internal/source"
	"github.com/redactyl/bextract/pkg/bulk"
)

func writeInputs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func filesProducer(dir string) producer {
	return func(ctx context.Context, emit func(source.Input) error) error {
		return source.Files(ctx, []string{dir}, source.Filter{DefaultExcludes: true}, emit)
	}
}

func kinds(rs []bulk.Record) map[string]int {
	out := map[string]int{}
	for _, r := range rs {
		out[r.Kind+":"+r.Recorder]++
	}
	return out
}

func TestRunPipeline_ManyWorkers(t *testing.T) {
	files := map[string]string{}
	for _, n := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		files[n] = demoBuffer
	}
	dir := writeInputs(t, files)
	lib := bulk.Builtin(bulk.EngineOptions{Histograms: true})

	res, err := runPipeline(context.Background(), lib, filesProducer(dir), pipelineOptions{Threads: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Inputs)
	assert.Equal(t, 0, res.Cached)
	assert.Equal(t, int64(5*len(demoBuffer)), res.Bytes)

	k := kinds(res.Records)
	assert.Equal(t, 5, k["feature:email"])
	assert.Equal(t, 5, k["feature:telephone"])
	assert.Equal(t, 5, k["histogram:email_histogram"])
	for _, r := range res.Records {
		assert.NotEmpty(t, r.Source)
	}
}

func TestRunPipeline_CacheReusesUnchangedInputs(t *testing.T) {
	dir := writeInputs(t, map[string]string{"a.txt": demoBuffer, "b.txt": "no features here"})
	lib := bulk.Builtin(bulk.EngineOptions{})
	opts := pipelineOptions{Threads: 2, CacheRoot: dir, Fingerprint: "v1"}

	first, err := runPipeline(context.Background(), lib, filesProducer(dir), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inputs)
	assert.Equal(t, 0, first.Cached)

	second, err := runPipeline(context.Background(), lib, filesProducer(dir), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inputs)
	assert.Equal(t, 2, second.Cached)
	assert.Equal(t, kinds(first.Records), kinds(second.Records))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("mail ops@example.org"), 0o644))
	third, err := runPipeline(context.Background(), lib, filesProducer(dir), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Inputs)
	assert.Equal(t, 1, third.Cached)
	assert.Equal(t, 2, kinds(third.Records)["feature:email"])

	opts.Fingerprint = "v2"
	fourth, err := runPipeline(context.Background(), lib, filesProducer(dir), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, fourth.Inputs, "changed engine settings invalidate the cache")
}

func TestRunPipeline_CacheAcrossAlternatingSettings(t *testing.T) {
	dir := writeInputs(t, map[string]string{"a.txt": demoBuffer})
	full := bulk.Builtin(bulk.EngineOptions{Histograms: true})
	emailOnly := bulk.Builtin(bulk.EngineOptions{Recorders: []string{"email"}})
	fullOpts := pipelineOptions{Threads: 1, CacheRoot: dir, Fingerprint: "full"}
	emailOpts := pipelineOptions{Threads: 1, CacheRoot: dir, Fingerprint: "email"}

	first, err := runPipeline(context.Background(), full, filesProducer(dir), fullOpts)
	require.NoError(t, err)
	second, err := runPipeline(context.Background(), emailOnly, filesProducer(dir), emailOpts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inputs)
	assert.Equal(t, map[string]int{"feature:email": 1}, kinds(second.Records))

	third, err := runPipeline(context.Background(), full, filesProducer(dir), fullOpts)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Inputs, "results from other settings are never carried over")
	assert.Equal(t, 0, third.Cached)
	assert.Equal(t, kinds(first.Records), kinds(third.Records))
}

func TestRunPipeline_AbortedInputIsRescanned(t *testing.T) {
	dir := writeInputs(t, map[string]string{"a.txt": demoBuffer, "b.txt": "no features here"})
	opts := pipelineOptions{Threads: 1, CacheRoot: dir, Fingerprint: "v1"}
	lib := bulk.Builtin(bulk.EngineOptions{})

	_, err := runPipeline(context.Background(), lib, filesProducer(dir), opts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("ops@example.org"), 0o644))
	aborted, err := runPipeline(context.Background(), abortingLib{}, filesProducer(dir), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, aborted.Failed)
	assert.Equal(t, 1, aborted.Cached)

	again, err := runPipeline(context.Background(), lib, filesProducer(dir), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Inputs, "an aborted input is not remembered as scanned")
	assert.Equal(t, 1, again.Cached)
	assert.Equal(t, 1, kinds(again.Records)["feature:email"])
}

type abortingLib struct{}

func (abortingLib) Name() string { return "aborting" }

func (abortingLib) Open(bulk.Callback) bulk.Session { return abortingSession{} }

type abortingSession struct{}

func (abortingSession) Analyze([]byte) int { return 7 }
func (abortingSession) Close() int         { return 0 }

func TestRunPipeline_AbortedAnalysisContinues(t *testing.T) {
	dir := writeInputs(t, map[string]string{"a.txt": "x", "b.txt": "y"})
	m := metrics.New()
	res, err := runPipeline(context.Background(), abortingLib{}, filesProducer(dir), pipelineOptions{Threads: 1, Metrics: m})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inputs)
	assert.Equal(t, 2, res.Failed)
	assert.Empty(t, res.Records)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `bextract_analyses_total{result="aborted"} 2`)
}

type nullLib struct{}

func (nullLib) Name() string                    { return "null" }
func (nullLib) Open(bulk.Callback) bulk.Session { return nil }

func TestRunPipeline_OpenFailure(t *testing.T) {
	dir := writeInputs(t, map[string]string{"a.txt": "x"})
	_, err := runPipeline(context.Background(), nullLib{}, filesProducer(dir), pipelineOptions{Threads: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, bulk.ErrNullSession)
}

func TestRunPipeline_ProducerError(t *testing.T) {
	lib := bulk.Builtin(bulk.EngineOptions{})
	_, err := runPipeline(context.Background(), lib, func(context.Context, func(source.Input) error) error {
		return os.ErrNotExist
	}, pipelineOptions{Threads: 2})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
