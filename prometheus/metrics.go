package prometheus

import (
	"time"

	"github.com/ogboNoble001/brightnal-backend/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Product metrics
	ProductOperationsCounter prometheus.CounterVec

	// Image pipeline metrics
	ImageUploadsCounter       prometheus.Counter
	ImageUploadFailureCounter prometheus.Counter
	ImageDeletesCounter       prometheus.Counter
	CompensationCounter       prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Product metrics
	ProductOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	// Image pipeline metrics
	ImageUploadsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_image_uploads_total",
			Help: "Total number of successful image uploads",
		},
	)

	ImageUploadFailureCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_image_upload_failures_total",
			Help: "Total number of failed image uploads",
		},
	)

	ImageDeletesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_image_deletes_total",
			Help: "Total number of image delete attempts",
		},
	)

	CompensationCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_compensation_deletes_total",
			Help: "Total number of compensating image deletes after a failed persist",
		},
		[]string{"outcome"},
	)

	initialized = true
}

var initialized bool

// RecordHTTPRequest records the request counter and duration histogram
func RecordHTTPRequest(method, path, status string, seconds float64) {
	if !initialized {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if !initialized {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	if !initialized {
		return
	}
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordImageUpload increments the upload counters
func RecordImageUpload(ok bool) {
	if !initialized {
		return
	}
	if ok {
		ImageUploadsCounter.Inc()
	} else {
		ImageUploadFailureCounter.Inc()
	}
}

// RecordImageDelete increments the image delete counter
func RecordImageDelete() {
	if !initialized {
		return
	}
	ImageDeletesCounter.Inc()
}

// RecordCompensation increments the compensation counter by outcome
func RecordCompensation(outcome string) {
	if !initialized {
		return
	}
	CompensationCounter.WithLabelValues(outcome).Inc()
}

// RecordAuthAttempt increments the auth attempt counter
func RecordAuthAttempt() {
	if !initialized {
		return
	}
	AuthAttemptsCounter.Inc()
}

// RecordAuthSuccess increments the auth success counter
func RecordAuthSuccess() {
	if !initialized {
		return
	}
	AuthSuccessCounter.Inc()
}

// RecordAuthError increments the auth error counter
func RecordAuthError() {
	if !initialized {
		return
	}
	AuthErrorsCounter.Inc()
}
