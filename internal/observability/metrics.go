package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	attemptsGradedTotal  *prometheus.CounterVec
	attemptScore         *prometheus.HistogramVec
	regradeChangedTotal  *prometheus.CounterVec
	eventPublishFailures *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the grading API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		attemptsGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_attempts_total",
			Help: "Attempts scored by the grading engine.",
		}, []string{"activity_type", "outcome"})

		attemptScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_attempt_score",
			Help:    "Distribution of automatically assigned scores.",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
		}, []string{"activity_type"})

		regradeChangedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_regrade_changed_total",
			Help: "Attempts whose score changed during a regrade.",
		}, []string{"activity_type"})

		eventPublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_event_publish_failures_total",
			Help: "Attempt events that could not be delivered to a broker.",
		}, []string{"broker"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			attemptsGradedTotal,
			attemptScore,
			regradeChangedTotal,
			eventPublishFailures,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AttemptsGraded counts graded attempts by activity type and outcome.
func AttemptsGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsGradedTotal
}

// AttemptScore observes assigned scores per activity type.
func AttemptScore() *prometheus.HistogramVec {
	RegisterMetrics()
	return attemptScore
}

// RegradeChanged counts attempts rewritten by a regrade.
func RegradeChanged() *prometheus.CounterVec {
	RegisterMetrics()
	return regradeChangedTotal
}

// EventPublishFailures counts failed broker deliveries.
func EventPublishFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return eventPublishFailures
}
