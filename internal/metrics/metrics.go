// Package metrics exposes Prometheus counters for batch processing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the engine's Prometheus metrics.
type Manager struct {
	registry *prometheus.Registry

	RecordingsProcessed prometheus.Counter
	RecordingsFailed    prometheus.Counter
	Decisions           *prometheus.CounterVec
	AnomalyEvents       *prometheus.CounterVec
	PipelineDuration    prometheus.Histogram
}

// New creates a Manager with its own registry.
func New() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Manager{
		registry: reg,
		RecordingsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mocapqa",
			Name:      "recordings_processed_total",
			Help:      "Recordings that completed the pipeline.",
		}),
		RecordingsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mocapqa",
			Name:      "recordings_failed_total",
			Help:      "Recordings that produced a failure record.",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mocapqa",
			Name:      "decisions_total",
			Help:      "Quality decisions by outcome.",
		}, []string{"decision"}),
		AnomalyEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mocapqa",
			Name:      "anomaly_events_total",
			Help:      "Classified anomaly events by tier.",
		}, []string{"tier"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mocapqa",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time per recording pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns the scrape handler for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
