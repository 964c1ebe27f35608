// Package metrics exposes benchmark progress as Prometheus collectors.
// Each Registry owns an isolated prometheus.Registry so concurrent runs
// and tests never share state.
//
// Usage:
//
//	reg := metrics.NewRegistry()
//	reg.Observe(metrics.OutcomeCorrect, 42*time.Millisecond)
//	http.Handle("/metrics", reg.Handler())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeFailed    = "failed"
)

// DefaultBuckets are latency histogram boundaries in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Registry holds the collectors for one benchmark run.
type Registry struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     prometheus.Histogram
	readyChecks prometheus.Counter
	dataset     prometheus.Gauge
}

// NewRegistry creates a registry with all collectors registered, plus the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intentbench",
			Name:      "requests_total",
			Help:      "Classification requests by outcome.",
		}, []string{"outcome"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intentbench",
			Name:      "request_duration_seconds",
			Help:      "Latency of successful classification requests.",
			Buckets:   DefaultBuckets,
		}),
		readyChecks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "intentbench",
			Name:      "ready_checks_total",
			Help:      "Readiness probes that reported not ready.",
		}),
		dataset: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "intentbench",
			Name:      "dataset_rows",
			Help:      "Rows in the dataset under evaluation.",
		}),
	}
}

// Observe records one finished request. Failed requests carry no latency.
func (r *Registry) Observe(outcome string, d time.Duration) {
	r.requests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeFailed {
		r.latency.Observe(d.Seconds())
	}
}

// NotReady counts a readiness probe that came back negative.
func (r *Registry) NotReady() { r.readyChecks.Inc() }

// SetDatasetSize records how many rows will be dispatched.
func (r *Registry) SetDatasetSize(n int) { r.dataset.Set(float64(n)) }

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
