// Package metrics holds the Prometheus instruments of the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all pipeline metrics.
	MetricsNamespace = "ecclesia"

	// MetricsSubsystem is the subsystem for ingestion metrics.
	MetricsSubsystem = "ingest"
)

// Item outcomes used as the "outcome" label
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics holds all Prometheus metrics for ingestion.
type Metrics struct {
	registry prometheus.Gatherer

	ItemsTotal           *prometheus.CounterVec
	LinksDiscoveredTotal *prometheus.CounterVec
	SweepsTotal          *prometheus.CounterVec
	SweepDurationSeconds prometheus.Histogram
	ItemDurationSeconds  *prometheus.HistogramVec
	TasksRunning         prometheus.Gauge
}

// NewMetrics creates and registers the ingestion metrics on reg. A nil reg
// gets a private registry so tests and repeated construction never collide.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.ItemsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "items_total",
			Help:      "Candidate pages processed, by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	m.LinksDiscoveredTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "links_discovered_total",
			Help:      "Candidate links discovered on listing pages",
		},
		[]string{"source"},
	)

	m.SweepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "sweeps_total",
			Help:      "Completed sweeps over all sources, by status",
		},
		[]string{"status"},
	)

	m.SweepDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full sweep in seconds",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12), // 10s to ~5.7h
		},
	)

	m.ItemDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "item_duration_seconds",
			Help:      "Duration of a single candidate pipeline run in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"outcome"},
	)

	m.TasksRunning = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "tasks_running",
			Help:      "Background ingestion tasks currently running",
		},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveItem records one candidate outcome
func (m *Metrics) ObserveItem(source, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(source, outcome).Inc()
	m.ItemDurationSeconds.WithLabelValues(outcome).Observe(seconds)
}

// ObserveLinks records links discovered for a source
func (m *Metrics) ObserveLinks(source string, count int) {
	if m == nil {
		return
	}
	m.LinksDiscoveredTotal.WithLabelValues(source).Add(float64(count))
}

// ObserveSweep records a finished sweep
func (m *Metrics) ObserveSweep(status string, seconds float64) {
	if m == nil {
		return
	}
	m.SweepsTotal.WithLabelValues(status).Inc()
	m.SweepDurationSeconds.Observe(seconds)
}

// TaskStarted and TaskFinished track the running task gauge
func (m *Metrics) TaskStarted() {
	if m != nil {
		m.TasksRunning.Inc()
	}
}

func (m *Metrics) TaskFinished() {
	if m != nil {
		m.TasksRunning.Dec()
	}
}
