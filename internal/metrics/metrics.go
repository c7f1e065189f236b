// Package metrics exposes Prometheus counters for engine events and
// analysis calls.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redactyl/bextract/internal/abi"
	"github.com/redactyl/bextract/internal/demux"
	"github.com/redactyl/bextract/internal/marshal"
)

// Metrics groups the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	events   *prometheus.CounterVec
	analyses *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Histogram
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bextract",
			Name:      "events_total",
			Help:      "Engine callback events by kind and recorder.",
		}, []string{"kind", "recorder"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bextract",
			Name:      "analyses_total",
			Help:      "Analyze calls by result.",
		}, []string{"result"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bextract",
			Name:      "analyzed_bytes_total",
			Help:      "Bytes submitted to the engine.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bextract",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one Analyze call.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	m.registry.MustRegister(m.events, m.analyses, m.bytes, m.duration)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Handlers counts every event it sees and always continues. Chain it with
// the handlers doing real work.
func (m *Metrics) Handlers() demux.Handlers {
	inc := func(kind abi.Flag, recorder string) abi.Status {
		m.events.WithLabelValues(kind.String(), recorder).Inc()
		return abi.StatusContinue
	}
	return demux.Handlers{
		Feature:   func(ev demux.FeatureEvent) abi.Status { return inc(ev.Kind(), ev.Recorder) },
		Histogram: func(ev demux.HistogramEvent) abi.Status { return inc(ev.Kind(), ev.Recorder) },
		Carve:     func(ev demux.CarveEvent) abi.Status { return inc(ev.Kind(), ev.Recorder) },
	}
}

// ObserveAnalysis records one Submit of n bytes that took d and ended with err.
func (m *Metrics) ObserveAnalysis(n int, d time.Duration, err error) {
	m.bytes.Add(float64(n))
	m.duration.Observe(d.Seconds())
	var ae *marshal.AnalysisError
	switch {
	case err == nil:
		m.analyses.WithLabelValues("ok").Inc()
	case errors.As(err, &ae):
		m.analyses.WithLabelValues("aborted").Inc()
	default:
		m.analyses.WithLabelValues("error").Inc()
	}
}
