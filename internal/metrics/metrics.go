// Package metrics holds the Prometheus collectors for the bridge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains every bridge collector.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	EventsIngested *prometheus.CounterVec
	EventsDropped  *prometheus.CounterVec

	// Polling
	PollsTotal    *prometheus.CounterVec
	PollWait      prometheus.Histogram
	WaitersActive prometheus.Gauge

	// Runs
	RunsStarted  prometheus.Counter
	RunsFinished *prometheus.CounterVec
	StreamsOpen  prometheus.Gauge

	// Tools and publishing
	ToolCalls    *prometheus.CounterVec
	Publications *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_ingested_total",
				Help:      "Upstream events appended to a run log",
			},
			[]string{"type"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Upstream messages not appended to any run log",
			},
			[]string{"reason"},
		),
		PollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "polls_total",
				Help:      "Poll calls by wait outcome",
			},
			[]string{"outcome"},
		),
		PollWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_wait_seconds",
				Help:      "Time a poll spent suspended",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
		),
		WaitersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "waiters_active",
				Help:      "Polls currently suspended",
			},
		),
		RunsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Runs confirmed by upstream",
			},
		),
		RunsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_finished_total",
				Help:      "Runs that reached a final status",
			},
			[]string{"status"},
		),
		StreamsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "upstream_streams_open",
				Help:      "Upstream streams currently being consumed",
			},
		),
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by tool and result",
			},
			[]string{"tool", "result"},
		),
		Publications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publications_total",
				Help:      "Publish attempts by result",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordPoll records one completed poll.
func (m *Metrics) RecordPoll(outcome string, waited time.Duration) {
	m.PollsTotal.WithLabelValues(outcome).Inc()
	m.PollWait.Observe(waited.Seconds())
}

// RecordEvent records one appended event.
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsIngested.WithLabelValues(eventType).Inc()
}

// RecordDrop records one discarded message.
func (m *Metrics) RecordDrop(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordRunFinished records a run leaving the running state.
func (m *Metrics) RecordRunFinished(status string) {
	m.RunsFinished.WithLabelValues(status).Inc()
}

// RecordToolCall records one routed tool invocation.
func (m *Metrics) RecordToolCall(tool string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.ToolCalls.WithLabelValues(tool, result).Inc()
}

// RecordPublication records one publish attempt.
func (m *Metrics) RecordPublication(result string) {
	m.Publications.WithLabelValues(result).Inc()
}
