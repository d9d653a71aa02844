// Package metrics provides Prometheus instrumentation for the bridge.
//
// A private registry is used instead of the default global one so tests
// can create collectors freely and the /metrics endpoint only exposes
// what the bridge itself registers.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for TurnsTotal. The failure values mirror the
// agent's error kinds.
const (
	OutcomeOK             = "ok"
	OutcomeRemoteInit     = "remote_init"
	OutcomeTemplateRender = "template_render"
	OutcomeRemoteQuery    = "remote_query"
	OutcomeRemoteOverload = "remote_overload"
	OutcomeInternal       = "internal"
)

// Metrics holds the bridge's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// TurnsTotal counts processed turns by outcome.
	TurnsTotal *prometheus.CounterVec

	// TurnDuration observes end-to-end turn latency in seconds.
	TurnDuration prometheus.Histogram

	// RemoteCalls counts outbound remote operations by name.
	RemoteCalls *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hugbridge",
			Name:      "turns_total",
			Help:      "Processed conversation turns by outcome.",
		}, []string{"outcome"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hugbridge",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn processing latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RemoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hugbridge",
			Name:      "remote_calls_total",
			Help:      "Outbound remote service calls by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.TurnsTotal, m.TurnDuration, m.RemoteCalls)
	return m
}

// ObserveTurn records one processed turn.
func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// RecordRemoteCall counts one outbound operation.
func (m *Metrics) RecordRemoteCall(op string) {
	if m == nil {
		return
	}
	m.RemoteCalls.WithLabelValues(op).Inc()
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
