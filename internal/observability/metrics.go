// Package observability exposes Prometheus metrics for the soft-failure
// diagnostics of the measurement pipeline: which fallback branch a probe
// took, which geolocation provider failed, and how many connections were
// evaluated or skipped.
package observability

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the pipeline's Prometheus metrics. A nil *Collector is
// valid and drops all observations, so callers never need to guard.
type Collector struct {
	gatherer prometheus.Gatherer

	providerFailures *prometheus.CounterVec
	probeFallbacks   *prometheus.CounterVec
	measuredLatency  prometheus.Histogram

	evaluationRuns       prometheus.Counter
	connectionsEvaluated prometheus.Counter
	connectionsSkipped   prometheus.Counter
}

// NewCollector registers the pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	providerFailures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoip_provider_failures_total",
		Help: "Geolocation provider attempts that did not yield an accepted location, labeled by provider and reason.",
	}, []string{"provider", "reason"}))
	if err != nil {
		return nil, err
	}

	probeFallbacks, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ping_fallbacks_total",
		Help: "Latency probes that substituted a fallback or estimated value, labeled by reason.",
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}

	measuredLatency, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ping_measured_latency_ms",
		Help:    "Parsed average round-trip latency of successful probes, in milliseconds.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	}))
	if err != nil {
		return nil, err
	}

	evaluationRuns, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "connection_evaluation_runs_total",
		Help: "Full evaluation passes over the configured connection list.",
	}))
	if err != nil {
		return nil, err
	}

	connectionsEvaluated, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "connections_evaluated_total",
		Help: "Connections for which an effort distance was computed.",
	}))
	if err != nil {
		return nil, err
	}

	connectionsSkipped, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "connections_skipped_total",
		Help: "Requested connections skipped because an endpoint name did not resolve.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:             gatherer,
		providerFailures:     providerFailures,
		probeFallbacks:       probeFallbacks,
		measuredLatency:      measuredLatency,
		evaluationRuns:       evaluationRuns,
		connectionsEvaluated: connectionsEvaluated,
		connectionsSkipped:   connectionsSkipped,
	}, nil
}

// Handler returns an HTTP handler serving the collector's metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ProviderFailure records one failed geolocation provider attempt.
func (c *Collector) ProviderFailure(provider, reason string) {
	if c == nil {
		return
	}
	c.providerFailures.WithLabelValues(provider, reason).Inc()
}

// ProbeFallback records one latency probe that substituted a value.
func (c *Collector) ProbeFallback(reason string) {
	if c == nil {
		return
	}
	c.probeFallbacks.WithLabelValues(reason).Inc()
}

// ObserveLatency records one parsed probe latency in milliseconds.
func (c *Collector) ObserveLatency(ms float64) {
	if c == nil {
		return
	}
	c.measuredLatency.Observe(ms)
}

// EvaluationRun records one full pass over the connection list.
func (c *Collector) EvaluationRun() {
	if c == nil {
		return
	}
	c.evaluationRuns.Inc()
}

// ConnectionEvaluated records one computed connection result.
func (c *Collector) ConnectionEvaluated() {
	if c == nil {
		return
	}
	c.connectionsEvaluated.Inc()
}

// ConnectionSkipped records one connection dropped for an unresolved name.
func (c *Collector) ConnectionSkipped() {
	if c == nil {
		return
	}
	c.connectionsSkipped.Inc()
}

// register adds a collector to the registry, reusing an existing collector
// of the same identity if one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}
