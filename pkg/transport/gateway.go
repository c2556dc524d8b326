package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/auth"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/observability"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// Config holds the gateway's transport-level settings.
type Config struct {
	// DefaultModel is substituted when the backend request carries no
	// model name (the usual case; PassModel forwards client names).
	DefaultModel    string
	EmbeddingsModel string
	PassToken       bool
	EnableCORS      bool
	MetricsEnabled  bool
	MetricsPath     string
	MaxBodySize     int64
	Secret          *auth.SharedSecret
	Logger          *slog.Logger
}

// Gateway dispatches the inbound protocol surfaces onto the backend.
type Gateway struct {
	cfg         Config
	backend     *backend.Client
	normalizer  *translate.Normalizer
	transformer translate.Transformer
	tokenizer   Tokenizer
	logger      *slog.Logger
}

// NewGateway assembles a Gateway. The tokenizer is used only for
// embeddings requests carrying token-id input; pass nil to reject those.
func NewGateway(cfg Config, client *backend.Client, normalizer *translate.Normalizer, transformer translate.Transformer, tokenizer Tokenizer) *Gateway {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 100 << 20
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:         cfg,
		backend:     client,
		normalizer:  normalizer,
		transformer: transformer,
		tokenizer:   tokenizer,
		logger:      logger,
	}
}

// Handler returns the fully assembled http.Handler: routes for every
// protocol surface under both versioned and unversioned paths, wrapped in
// the middleware chain.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, prefix := range []string{"", "/v1"} {
		mux.HandleFunc("POST "+prefix+"/chat/completions", g.handleChatCompletions)
		mux.HandleFunc("POST "+prefix+"/responses", g.handleResponses)
		mux.HandleFunc("POST "+prefix+"/messages", g.handleMessages)
		mux.HandleFunc("POST "+prefix+"/messages/count_tokens", g.handleCountTokens)
		mux.HandleFunc("POST "+prefix+"/embeddings", g.handleEmbeddings)
		mux.HandleFunc("GET "+prefix+"/models", g.handleModels)
	}
	mux.HandleFunc("GET /healthz", g.handleHealth)
	if g.cfg.MetricsEnabled {
		mux.Handle("GET "+g.cfg.MetricsPath, promhttp.Handler())
	}

	handler := Chain(
		Recovery(g.logger),
		RequestID(),
		Logging(g.logger),
		Middleware(observability.MetricsMiddleware),
		NormalizePath(),
		Auth(g.cfg.Secret, "/healthz", g.cfg.MetricsPath),
	)(mux)

	if g.cfg.EnableCORS {
		handler = cors.AllowAll().Handler(handler)
	}
	return handler
}

// client returns the backend client for a request, swapping in the
// caller's bearer token when pass-through auth is enabled.
func (g *Gateway) client(r *http.Request) *backend.Client {
	if g.cfg.PassToken {
		if token := auth.BearerToken(r); token != "" {
			return g.backend.WithToken(token)
		}
	}
	return g.backend
}

// decodeBody decodes a JSON request body into v, enforcing the body size
// ceiling. On failure an error response has already been written.
func (g *Gateway) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, g.cfg.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, api.NewPayloadTooLargeError("body", "Request body too large"))
			return false
		}
		WriteError(w, api.NewValidationError("body", "Invalid JSON: "+err.Error()))
		return false
	}
	return true
}

// defaultModel fills in the configured model when the transform left the
// request without one.
func (g *Gateway) defaultModel(req *backend.ChatRequest) {
	if req.Model == "" {
		req.Model = g.cfg.DefaultModel
	}
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
