// Package telemetry registers the Prometheus metrics exported by coachd.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the coachd metric instruments. A single instance is created
// at startup and injected into components that record measurements.
type Metrics struct {
	SessionsRegistered prometheus.Counter
	SessionsResolved   *prometheus.CounterVec
	SessionsCleaned    prometheus.Counter
	ExtractionRuns     prometheus.Counter
	ReportsGenerated   *prometheus.CounterVec
	ReportDuration     prometheus.Histogram
}

// New creates and registers the metrics with the given registerer. Passing
// nil registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "coachd_sessions_registered_total",
			Help: "Total number of sessions registered.",
		}),
		SessionsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coachd_sessions_resolved_total",
			Help: "Session correlation attempts by outcome.",
		}, []string{"outcome"}),
		SessionsCleaned: factory.NewCounter(prometheus.CounterOpts{
			Name: "coachd_sessions_cleaned_total",
			Help: "Sessions removed by the inactivity cleanup sweep.",
		}),
		ExtractionRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "coachd_extraction_runs_total",
			Help: "Total number of transcript extraction passes.",
		}),
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coachd_reports_generated_total",
			Help: "Reports generated by kind and source.",
		}, []string{"kind", "source"}),
		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "coachd_report_generation_seconds",
			Help:    "Wall time of full report generation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
