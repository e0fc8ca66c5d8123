package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	submissionsEnqueued   prometheus.Counter
	resultsApplied        *prometheus.CounterVec
	errorEventsForwarded  prometheus.Counter
	eventsIngested        prometheus.Counter
	eventsDropped         *prometheus.CounterVec
	recommendationsServed *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors shared by the
// services.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kodegym_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kodegym_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		submissionsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kodegym_submissions_enqueued_total",
			Help: "Submissions accepted and published for grading.",
		})

		resultsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kodegym_grading_results_applied_total",
			Help: "Grading results consumed from the result queue.",
		}, []string{"status"})

		errorEventsForwarded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kodegym_error_events_forwarded_total",
			Help: "Error events forwarded to the ingestion pipeline.",
		})

		eventsIngested = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kodegym_error_events_ingested_total",
			Help: "Error events persisted as error records.",
		})

		eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kodegym_error_events_dropped_total",
			Help: "Error events dropped during ingestion.",
		}, []string{"reason"})

		recommendationsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kodegym_recommendations_served_total",
			Help: "Recommendation responses grouped by variant.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			submissionsEnqueued,
			resultsApplied,
			errorEventsForwarded,
			eventsIngested,
			eventsDropped,
			recommendationsServed,
		)
	})
}

// HTTPRequests exposes the counter for HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// SubmissionsEnqueued counts accepted submissions.
func SubmissionsEnqueued() prometheus.Counter {
	RegisterMetrics()
	return submissionsEnqueued
}

// ResultsApplied counts consumed grading results by status.
func ResultsApplied() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsApplied
}

// ErrorEventsForwarded counts events handed to the ingestion pipeline.
func ErrorEventsForwarded() prometheus.Counter {
	RegisterMetrics()
	return errorEventsForwarded
}

// EventsIngested counts persisted error records.
func EventsIngested() prometheus.Counter {
	RegisterMetrics()
	return eventsIngested
}

// EventsDropped counts dropped ingestion events by reason.
func EventsDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsDropped
}

// RecommendationsServed counts recommendation responses by variant.
func RecommendationsServed() *prometheus.CounterVec {
	RegisterMetrics()
	return recommendationsServed
}
