package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "postcodes_upstream_breaker_state",
			Help: "Current state of the upstream circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postcodes_upstream_request_duration_seconds",
			Help:    "Latency of requests to the postcode lookup service",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(breakerState)
	prometheus.MustRegister(upstreamDuration)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// statusLabel buckets status codes as 2xx, 4xx, 5xx, or "error" when no
// response came back.
func statusLabel(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
