package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	httpActiveConnections prometheus.Gauge

	recordCount          *prometheus.GaugeVec
	storageFailuresTotal *prometheus.CounterVec
	uploadsTotal         *prometheus.CounterVec

	initOnce sync.Once
)

// initializeMetrics registers all service metrics with the default
// registry exactly once.
func initializeMetrics() {
	initOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		)

		httpRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		)

		httpActiveConnections = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of active HTTP connections",
			},
		)

		recordCount = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nusam_records",
				Help: "Current number of records per collection",
			},
			[]string{"collection"},
		)

		storageFailuresTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nusam_storage_failures_total",
				Help: "Total number of reads or writes the durable store rejected",
			},
			[]string{"operation"},
		)

		uploadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nusam_document_uploads_total",
				Help: "Total number of document upload attempts",
			},
			[]string{"result"}, // "success", "validation_failed", "unknown_patient"
		)

		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			httpActiveConnections,
			recordCount,
			storageFailuresTotal,
			uploadsTotal,
		)
	})
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	initializeMetrics()

	status := strconv.Itoa(statusCode)

	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	initializeMetrics()
	httpActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	initializeMetrics()
	httpActiveConnections.Dec()
}

// SetRecordCount tracks how many records a collection currently holds
func SetRecordCount(collection string, count int) {
	initializeMetrics()
	recordCount.WithLabelValues(collection).Set(float64(count))
}

// RecordStorageFailure counts a rejected read or write on the durable store
func RecordStorageFailure(operation string) {
	initializeMetrics()
	storageFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordUpload counts a document upload attempt by outcome
func RecordUpload(result string) {
	initializeMetrics()
	uploadsTotal.WithLabelValues(result).Inc()
}
