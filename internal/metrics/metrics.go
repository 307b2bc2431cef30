// Package metrics exposes Prometheus instrumentation for the analysis engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incident_analyst"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Operations counts lifecycle calls.
	// Labels: operation (submit, apply_fix, resolve), result (ok, error)
	Operations *prometheus.CounterVec

	// Analyses counts produced analyses by source (classifier, adapter:<name>)
	Analyses *prometheus.CounterVec

	// Fallbacks counts adapter fallbacks.
	// Labels: reason (absent, rate_limited, timeout, error)
	Fallbacks *prometheus.CounterVec

	// AdapterDuration tracks reasoning adapter latency in seconds
	AdapterDuration prometheus.Histogram

	// CacheHits counts adapter results served from the cache
	CacheHits prometheus.Counter
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total lifecycle operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total analyses produced, by source",
			},
			[]string{"source"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_fallbacks_total",
				Help:      "Total fallbacks from the reasoning adapter to the classifier, by reason",
			},
			[]string{"reason"},
		),
		AdapterDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "adapter_duration_seconds",
				Help:      "Duration of reasoning adapter calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adapter_cache_hits_total",
				Help:      "Total adapter analyses served from the cache",
			},
		),
	}

	m.registry.MustRegister(
		m.Operations,
		m.Analyses,
		m.Fallbacks,
		m.AdapterDuration,
		m.CacheHits,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records a lifecycle call outcome
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(operation, result).Inc()
}

// ObserveAnalysis records which source produced an analysis
func (m *Metrics) ObserveAnalysis(source string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(source).Inc()
}

// ObserveFallback records a fallback to the classifier
func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

// ObserveAdapterDuration records one adapter call's latency
func (m *Metrics) ObserveAdapterDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.AdapterDuration.Observe(d.Seconds())
}

// ObserveCacheHit records an adapter result served from cache
func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}
