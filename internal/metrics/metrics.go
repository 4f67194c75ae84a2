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

	// AuthAttempts counts authentication outcomes by flow (signup, signin, google) and result.
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by flow and result",
		},
		[]string{"flow", "result"},
	)

	// UsersTotal is the number of registered users, refreshed periodically.
	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "users_total",
			Help: "Number of registered users",
		},
	)

	// ListingsTotal is the number of listings by type (sale, rent), refreshed periodically.
	ListingsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listings_total",
			Help: "Number of listings by type",
		},
		[]string{"type"},
	)
)

var (
	uuidPathSegment = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}(/|$)`)
	initOnce        sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthAttempts, UsersTotal, ListingsTotal)
	})
}

// NormalizePath reduces cardinality by replacing UUID path segments with {id}.
// E.g. /api/listing/get/0b4f... -> /api/listing/get/{id}.
func NormalizePath(path string) string {
	return uuidPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAuthAttempt increments the auth attempt counter. flow is signup,
// signin, or google; result is success, rejected, or error.
func RecordAuthAttempt(flow, result string) {
	AuthAttempts.WithLabelValues(flow, result).Inc()
}

// SetUsersTotal updates the registered users gauge.
func SetUsersTotal(n int64) {
	UsersTotal.Set(float64(n))
}

// SetListingsTotal updates the listings gauge for a listing type.
func SetListingsTotal(listingType string, n int64) {
	ListingsTotal.WithLabelValues(listingType).Set(float64(n))
}
