package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	httpClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagen_http_client_requests_total",
			Help: "Total number of outbound HTTP requests.",
		},
		[]string{"method", "host", "status"},
	)

	httpClientRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datagen_http_client_request_duration_seconds",
			Help:    "Outbound HTTP request latency by host.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"method", "host", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpClientRequestsTotal, httpClientRequestDurationSeconds)
}
