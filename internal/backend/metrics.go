package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeMalformed = "malformed"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cpgview_backend_request_duration_seconds",
		Help:    "Backend request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
	}, []string{"endpoint"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cpgview_backend_requests_total",
		Help: "Backend requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
)

// observe records one request. Decoding failures are counted without a
// second latency sample.
func observe(endpoint, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome != outcomeMalformed {
		requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	}
}
