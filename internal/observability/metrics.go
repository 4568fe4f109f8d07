package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	gradingTasksTotal     *prometheus.CounterVec
	batchDurationSeconds  prometheus.Histogram
	batchStudentsObserved prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the grading service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grader_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gradingTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_tasks_total",
			Help: "Grading tasks by terminal status.",
		}, []string{"status"})

		batchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_batch_duration_seconds",
			Help:    "Wall time spent grading one batch.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		})

		batchStudentsObserved = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_batch_students",
			Help:    "Number of student submissions per batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			gradingTasksTotal,
			batchDurationSeconds,
			batchStudentsObserved,
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

// TaskOutcomes exposes the counter for grading task terminal states.
func TaskOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingTasksTotal
}

// BatchDuration exposes the histogram of batch wall times.
func BatchDuration() prometheus.Histogram {
	RegisterMetrics()
	return batchDurationSeconds
}

// BatchStudents exposes the histogram of batch sizes.
func BatchStudents() prometheus.Histogram {
	RegisterMetrics()
	return batchStudentsObserved
}
