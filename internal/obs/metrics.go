package obs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_auth_operations_total",
		Help: "Auth gateway operations by backend and outcome.",
	}, []string{"operation", "backend", "outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// CountAuthOp records one gateway operation. outcome is "ok" or an error code.
func CountAuthOp(operation, backend, outcome string) {
	authOps.WithLabelValues(operation, backend, outcome).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method string, status int, dur time.Duration) {
	httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(dur.Seconds())
}
