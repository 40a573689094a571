// Package metrics exports the service's Prometheus instrumentation on a
// registry of its own, so tests and embedders never fight over the global
// default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the service records into.
type Metrics struct {
	registry *prometheus.Registry

	// PoolLines tracks the live pool size via the callback given to New.
	PoolLines prometheus.GaugeFunc

	LinesLoaded  prometheus.Counter
	LinesSampled prometheus.Counter

	Loads   *prometheus.CounterVec
	Samples *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

// New builds the instrument set. poolSize is read lazily on every scrape.
func New(poolSize func() int) *Metrics {
	reg := prometheus.NewRegistry()

	return &Metrics{
		registry: reg,

		PoolLines: promauto.With(reg).NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "linesampler_pool_lines",
				Help: "Number of lines currently held in the pool",
			},
			func() float64 { return float64(poolSize()) },
		),
		LinesLoaded: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "linesampler_lines_loaded_total",
				Help: "Total lines appended to the pool",
			},
		),
		LinesSampled: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "linesampler_lines_sampled_total",
				Help: "Total lines drawn from the pool",
			},
		),
		Loads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linesampler_loads_total",
				Help: "Load requests by outcome",
			},
			[]string{"outcome"},
		),
		Samples: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linesampler_samples_total",
				Help: "Sample requests by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linesampler_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "status"},
		),
	}
}

// Handler serves the exposition format for this registry only.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLoad counts one load request and the lines it appended.
func (m *Metrics) RecordLoad(outcome string, lines int) {
	m.Loads.WithLabelValues(outcome).Inc()
	if lines > 0 {
		m.LinesLoaded.Add(float64(lines))
	}
}

// RecordSample counts one sample request and the lines it drew.
func (m *Metrics) RecordSample(outcome string, lines int) {
	m.Samples.WithLabelValues(outcome).Inc()
	if lines > 0 {
		m.LinesSampled.Add(float64(lines))
	}
}

// RecordRequest observes one served request.
func (m *Metrics) RecordRequest(handler, status string, d time.Duration) {
	m.RequestDuration.WithLabelValues(handler, status).Observe(d.Seconds())
}
