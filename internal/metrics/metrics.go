package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "code"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	bookingOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking engine operations by name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	enrichDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_enrichment_seconds",
			Help:      "Time spent attaching bookings and comments to item views.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, grpcRequests, bookingOps, enrichDuration)
	})
}

func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

// ObserveBooking records one booking operation; outcome is "ok" or an error class.
func ObserveBooking(operation, outcome string) {
	bookingOps.WithLabelValues(operation, outcome).Inc()
}

func ObserveEnrichment(path string, started time.Time) {
	enrichDuration.WithLabelValues(path).Observe(time.Since(started).Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
