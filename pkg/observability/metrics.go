// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the chatbridge gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and protocol.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "protocol"},
	)

	// RequestDuration records HTTP request duration in seconds by method and protocol.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbridge_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "protocol"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbridge_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// BackendRequestsTotal counts RPCs sent to the backend by operation and outcome.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_backend_requests_total",
			Help: "Backend requests",
		},
		[]string{"operation", "status"},
	)

	// BackendLatency records backend RPC latency in seconds by operation.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbridge_backend_latency_seconds",
			Help:    "Backend latency",
			Buckets: LLMBuckets,
		},
		[]string{"operation"},
	)

	// BackendTokensTotal counts tokens processed by direction (input/output).
	BackendTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_backend_tokens_total",
			Help: "Token count",
		},
		[]string{"direction"},
	)

	// AttachmentCacheTotal counts attachment cache lookups by outcome (hit/miss).
	AttachmentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_attachment_cache_total",
			Help: "Attachment cache lookups",
		},
		[]string{"outcome"},
	)

	// AttachmentUploadBytes counts bytes uploaded to the backend by kind.
	AttachmentUploadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_attachment_upload_bytes_total",
			Help: "Uploaded attachment bytes",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		BackendRequestsTotal,
		BackendLatency,
		BackendTokensTotal,
		AttachmentCacheTotal,
		AttachmentUploadBytes,
	)
}

// RecordAttachmentCacheHit increments the cache hit counter.
func RecordAttachmentCacheHit() {
	AttachmentCacheTotal.WithLabelValues("hit").Inc()
}

// RecordAttachmentCacheMiss increments the cache miss counter.
func RecordAttachmentCacheMiss() {
	AttachmentCacheTotal.WithLabelValues("miss").Inc()
}

// RecordUploadBytes adds uploaded attachment bytes for the given kind.
func RecordUploadBytes(kind string, bytes int64) {
	AttachmentUploadBytes.WithLabelValues(kind).Add(float64(bytes))
}

// RecordBackendRequest counts one backend RPC with its latency.
func RecordBackendRequest(operation, status string, seconds float64) {
	BackendRequestsTotal.WithLabelValues(operation, status).Inc()
	BackendLatency.WithLabelValues(operation).Observe(seconds)
}

// RecordTokens counts prompt and completion tokens reported by the backend.
func RecordTokens(prompt, completion int) {
	if prompt > 0 {
		BackendTokensTotal.WithLabelValues("input").Add(float64(prompt))
	}
	if completion > 0 {
		BackendTokensTotal.WithLabelValues("output").Add(float64(completion))
	}
}
