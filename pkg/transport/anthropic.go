package transport

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/chatbridge-dev/chatbridge/pkg/protocol/anthropic"
)

// handleMessages serves POST /messages.
func (g *Gateway) handleMessages(w http.ResponseWriter, r *http.Request) {
	var req anthropic.MessagesRequest
	if !g.decodeBody(w, r, &req) {
		return
	}

	messages, err := g.normalizer.Normalize(r.Context(), req.Messages())
	if err != nil {
		WriteError(w, err)
		return
	}

	breq, _ := g.transformer.Transform(req.Params())
	breq.Messages = messages
	g.defaultModel(&breq)

	model := req.Model
	if model == "" {
		model = breq.Model
	}
	responseID := uuid.NewString()
	client := g.client(r)

	if req.Stream {
		stream, err := client.Stream(r.Context(), &breq)
		if err != nil {
			WriteError(w, err)
			return
		}
		defer stream.Close()

		sw := newStreamWriter(w)
		defer sw.finish()
		if err := anthropic.StreamMessages(r.Context(), stream, model, responseID, sw); err != nil {
			g.logger.Warn("messages stream aborted", "error", err, "request_id", RequestIDFromContext(r.Context()))
		}
		return
	}

	resp, err := client.Chat(r.Context(), &breq)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, anthropic.SynthesizeMessage(resp, model, responseID))
}

// handleCountTokens serves POST /messages/count_tokens.
func (g *Gateway) handleCountTokens(w http.ResponseWriter, r *http.Request) {
	var req anthropic.MessagesRequest
	if !g.decodeBody(w, r, &req) {
		return
	}

	model := g.cfg.DefaultModel
	if g.transformer.PassModel && req.Model != "" {
		model = req.Model
	}

	resp, err := anthropic.CountTokens(r.Context(), g.client(r), &req, model)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
