package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	uploadRejectedTotal   *prometheus.CounterVec
	propagationTotal      *prometheus.CounterVec
	exportFailuresTotal   prometheus.Counter
	statsCacheEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the grading API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_requests_total",
			Help: "Total number of grading API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_latency_seconds",
			Help:    "Latency distribution for grading API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_errors_total",
			Help: "Total number of error responses returned by grading endpoints.",
		}, []string{"method", "route", "status"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "script_upload_latency_seconds",
			Help:    "Latency distribution for script uploads.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "script_upload_rejected_total",
			Help: "Total number of rejected script uploads.",
		}, []string{"reason"})

		propagationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rubric_propagation_total",
			Help: "Total number of resolved rubric edit propagations.",
		}, []string{"scope"})

		exportFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_export_failures_total",
			Help: "Total number of failed grade report exports.",
		})

		statsCacheEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_cache_events_total",
			Help: "Statistics cache hits, misses and invalidations.",
		}, []string{"event"})

		prometheus.MustRegister(
			requestsTotal, latencySeconds, errorsTotal,
			uploadLatencySeconds, uploadRejectedTotal,
			propagationTotal, exportFailuresTotal, statsCacheEventsTotal,
		)
	})
}

// Requests exposes the counter for grading API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for grading API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for grading API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// UploadLatency exposes the histogram for script upload latency.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// UploadRejected exposes the counter for rejected script uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// Propagations exposes the counter for resolved rubric propagations.
func Propagations() *prometheus.CounterVec {
	RegisterMetrics()
	return propagationTotal
}

// ExportFailures exposes the counter for failed report exports.
func ExportFailures() prometheus.Counter {
	RegisterMetrics()
	return exportFailuresTotal
}

// StatsCacheEvents exposes the counter for statistics cache activity.
func StatsCacheEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheEventsTotal
}
