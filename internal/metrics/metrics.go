package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TransformTotal counts encode/decode invocations by op and outcome.
	TransformTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_transforms_total",
			Help: "Total number of stego transforms by op (encode, decode) and status (ok, error)",
		},
		[]string{"op", "status"},
	)

	// TransformDuration tracks transform duration in seconds by op.
	TransformDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_transform_duration_seconds",
			Help:    "Stego transform duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// FeedbackTotal counts feedback submissions by status (ok, error).
	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Total number of feedback submissions by status",
		},
		[]string{"status"},
	)
)

var (
	uuidPathSegment = regexp.MustCompile(`/[0-9a-f]{8}-[0-9a-f-]{27,}(/|$)`)
	initOnce        sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, TransformTotal, TransformDuration, FeedbackTotal)
	})
}

// NormalizePath reduces cardinality by replacing uuid path segments with {id}.
func NormalizePath(path string) string {
	return uuidPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTransform records one encode/decode invocation.
func RecordTransform(op string, err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TransformTotal.WithLabelValues(op, status).Inc()
	TransformDuration.WithLabelValues(op).Observe(durationSeconds)
}
