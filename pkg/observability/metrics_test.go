package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry without panicking.
func TestMetricsRegistered(t *testing.T) {
	// Counters and histograms only appear after first observation, so seed
	// every family before gathering.
	RequestsTotal.WithLabelValues("GET", "2xx", "test").Inc()
	RequestDuration.WithLabelValues("GET", "test").Observe(0.1)
	BackendRequestsTotal.WithLabelValues("chat", "ok").Inc()
	BackendLatency.WithLabelValues("chat").Observe(0.1)
	BackendTokensTotal.WithLabelValues("input").Add(10)
	AttachmentCacheTotal.WithLabelValues("hit").Inc()
	AttachmentUploadBytes.WithLabelValues("image").Add(100)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"chatbridge_requests_total":                false,
		"chatbridge_request_duration_seconds":      false,
		"chatbridge_streaming_connections_active":  false,
		"chatbridge_backend_requests_total":        false,
		"chatbridge_backend_latency_seconds":       false,
		"chatbridge_backend_tokens_total":          false,
		"chatbridge_attachment_cache_total":        false,
		"chatbridge_attachment_upload_bytes_total": false,
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

// TestMiddlewareRecordsRequestCount verifies that the middleware increments
// the request counter with the protocol label derived from the path.
func TestMiddlewareRecordsRequestCount(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "2xx", "chat_completions"))

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "2xx", "chat_completions"))
	if after-before != 1 {
		t.Errorf("expected request count to increase by 1, got delta=%f", after-before)
	}
}

// TestMiddlewareCapturesStatusCode verifies that non-200 status codes are
// captured correctly in the status label.
func TestMiddlewareCapturesStatusCode(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "4xx", "anthropic"))

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest("POST", "/v1/messages", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "4xx", "anthropic"))
	if after-before != 1 {
		t.Errorf("expected 4xx count to increase by 1, got delta=%f", after-before)
	}
}

// TestProtocolFromPath covers the path-to-protocol label mapping.
func TestProtocolFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/chat/completions", "chat_completions"},
		{"/chat/completions", "chat_completions"},
		{"/v1/responses", "responses"},
		{"/v1/messages", "anthropic"},
		{"/v1/messages/count_tokens", "anthropic"},
		{"/v1/embeddings", "embeddings"},
		{"/v1/models", "models"},
		{"/healthz", "other"},
	}

	for _, tt := range tests {
		if got := protocolFromPath(tt.path); got != tt.want {
			t.Errorf("protocolFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// TestStatusWriterFlush verifies that the statusWriter Flush method
// delegates to the underlying writer when it implements http.Flusher.
func TestStatusWriterFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.Flush()

	if !rec.Flushed {
		t.Error("expected underlying writer to be flushed")
	}
}
