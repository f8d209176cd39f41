package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leafscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Classification metrics
	classifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_classify_requests_total",
			Help: "Total number of classification requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	classifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leafscan_classify_duration_seconds",
			Help:    "Classification processing duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"transport"},
	)

	classifyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_classify_outcomes_total",
			Help: "Classification outcomes by kind",
		},
		[]string{"outcome"}, // accepted, low_confidence, no_prediction, index_out_of_range
	)

	classifyConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leafscan_classify_confidence",
			Help:    "Top prediction confidence",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leafscan_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 20 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leafscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// recordClassification updates classification metrics for one request.
func recordClassification(transport string, seconds float64, outcome string, confidence float64) {
	classifyRequestsTotal.WithLabelValues(transport, "success").Inc()
	classifyDuration.WithLabelValues(transport).Observe(seconds)
	classifyOutcomes.WithLabelValues(outcome).Inc()
	classifyConfidence.Observe(confidence)
}
