package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CheckoutMetrics struct {
	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
	TenderAttempts   *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
}

func NewCheckoutMetrics() *CheckoutMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldserve",
		Subsystem: "checkout",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fieldserve",
		Subsystem: "checkout",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldserve",
		Subsystem: "checkout",
		Name:      "tender_attempts_total",
		Help:      "Tender attempts by method and outcome.",
	}, []string{"method", "outcome"})
	finished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldserve",
		Subsystem: "checkout",
		Name:      "sessions_finished_total",
		Help:      "Checkout sessions by terminal state.",
	}, []string{"state"})

	prometheus.MustRegister(requests, latency, attempts, finished)
	return &CheckoutMetrics{
		Requests:         requests,
		LatencyMS:        latency,
		TenderAttempts:   attempts,
		SessionsFinished: finished,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
