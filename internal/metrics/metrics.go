// Package metrics exposes request and engine counters in both Prometheus
// exposition format and a JSON snapshot.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analyze outcomes recorded per request.
const (
	OutcomeFused    = "fused"
	OutcomeStub     = "stub"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry  *prometheus.Registry
	startTime time.Time

	analyzeTotal      *prometheus.CounterVec
	analyzeDuration   prometheus.Histogram
	engineInvocations *prometheus.CounterVec
	stubFallbacks     prometheus.Counter

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64
	stubServed      atomic.Int64
}

// New builds a Metrics instance with its own Prometheus registry so tests can
// construct as many as they need.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),
		analyzeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocrworker_analyze_requests_total",
			Help: "Analyze requests by outcome.",
		}, []string{"outcome"}),
		analyzeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ocrworker_analyze_duration_seconds",
			Help:    "End-to-end analyze duration.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		engineInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocrworker_engine_invocations_total",
			Help: "Engine invocations by engine id and status.",
		}, []string{"engine", "status"}),
		stubFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocrworker_stub_fallbacks_total",
			Help: "Requests served by the stub fallback document.",
		}),
	}
}

// RecordAnalyze records one analyze request. Nil-safe so wiring metrics stays
// optional in tests.
func (m *Metrics) RecordAnalyze(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyzeTotal.WithLabelValues(outcome).Inc()
	m.analyzeDuration.Observe(d.Seconds())

	m.requestsTotal.Add(1)
	switch outcome {
	case OutcomeFused, OutcomeStub:
		m.requestsSuccess.Add(1)
	default:
		m.requestsFailed.Add(1)
	}
}

func (m *Metrics) RecordEngineInvocation(engine, status string) {
	if m == nil {
		return
	}
	m.engineInvocations.WithLabelValues(engine, status).Inc()
}

func (m *Metrics) RecordStubFallback() {
	if m == nil {
		return
	}
	m.stubFallbacks.Inc()
	m.stubServed.Add(1)
}

// Handler serves the Prometheus exposition format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type Snapshot struct {
	UptimeSeconds   float64 `json:"uptime_seconds"`
	RequestsTotal   int64   `json:"requests_total"`
	RequestsSuccess int64   `json:"requests_success"`
	RequestsFailed  int64   `json:"requests_failed"`
	StubServed      int64   `json:"stub_served"`
}

func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		UptimeSeconds:   time.Since(m.startTime).Seconds(),
		RequestsTotal:   m.requestsTotal.Load(),
		RequestsSuccess: m.requestsSuccess.Load(),
		RequestsFailed:  m.requestsFailed.Load(),
		StubServed:      m.stubServed.Load(),
	}
}
