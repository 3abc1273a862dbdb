// Package metrics defines the Prometheus instrumentation shared by the API
// handlers, the queue worker, and the database layer.
package metrics

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics tracks domain-level counters for the checker.
type BusinessMetrics struct {
	ChecksTotal             *prometheus.CounterVec // label: source (remote|local)
	RemoteFallbacksTotal    prometheus.Counter
	IssuesFoundTotal        prometheus.Counter
	CorrectionsAppliedTotal prometheus.Counter
	ReportsStoredTotal      prometheus.Counter
	RewritesGeneratedTotal  prometheus.Counter
	AnalysesTotal           *prometheus.CounterVec // label: status (success|error)
	AnalysisDuration        *prometheus.HistogramVec
}

// NewBusinessMetrics registers and returns the business metrics for a service.
func NewBusinessMetrics(service string) *BusinessMetrics {
	return &BusinessMetrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "checks_total",
			Help:      "Detection passes completed, by issue source",
		}, []string{"source"}),
		RemoteFallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "remote_fallbacks_total",
			Help:      "Detection passes that fell back to the local rule engine",
		}),
		IssuesFoundTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "issues_found_total",
			Help:      "Issues detected across all passes",
		}),
		CorrectionsAppliedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "corrections_applied_total",
			Help:      "Corrections spliced into document text",
		}),
		ReportsStoredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "reports_stored_total",
			Help:      "Analysis reports persisted to the database",
		}),
		RewritesGeneratedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "rewrites_generated_total",
			Help:      "Active-voice rewrite suggestions generated",
		}),
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "analyses_total",
			Help:      "Queued analysis tasks completed, by status",
		}, []string{"status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of queued analysis tasks",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
}

// ObserveDurationWithExemplar records a duration observation, attaching the
// current trace ID as an exemplar when a sampled span is active.
func (m *BusinessMetrics) ObserveDurationWithExemplar(ctx context.Context, hist *prometheus.HistogramVec, seconds float64, status string) {
	observer := hist.WithLabelValues(status)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() && span.SpanContext().IsSampled() {
		if eo, ok := observer.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(seconds, prometheus.Labels{
				"trace_id": span.SpanContext().TraceID().String(),
			})
			return
		}
	}
	observer.Observe(seconds)
}

// DatabaseMetrics exposes sql.DBStats as gauges.
type DatabaseMetrics struct {
	openConnections prometheus.Gauge
	inUse           prometheus.Gauge
	idle            prometheus.Gauge
	waitCount       prometheus.Gauge
	waitDuration    prometheus.Gauge
}

// NewDatabaseMetrics registers and returns database gauges for a service.
func NewDatabaseMetrics(service string) *DatabaseMetrics {
	return &DatabaseMetrics{
		openConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: service, Subsystem: "db", Name: "open_connections",
			Help: "Open connections to the database",
		}),
		inUse: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: service, Subsystem: "db", Name: "in_use_connections",
			Help: "Connections currently in use",
		}),
		idle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: service, Subsystem: "db", Name: "idle_connections",
			Help: "Idle connections",
		}),
		waitCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: service, Subsystem: "db", Name: "wait_count",
			Help: "Total connections waited for",
		}),
		waitDuration: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: service, Subsystem: "db", Name: "wait_duration_seconds",
			Help: "Total time blocked waiting for a connection",
		}),
	}
}

// UpdateDBStats refreshes the gauges from the connection pool.
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.openConnections.Set(float64(stats.OpenConnections))
	m.inUse.Set(float64(stats.InUse))
	m.idle.Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
	m.waitDuration.Set(stats.WaitDuration.Seconds())
}
