package transport

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/chatbridge-dev/chatbridge/pkg/protocol/openai"
)

// handleChatCompletions serves POST /chat/completions.
func (g *Gateway) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req openai.Request
	if !g.decodeBody(w, r, &req) {
		return
	}

	messages, err := g.normalizer.Normalize(r.Context(), req.Messages)
	if err != nil {
		WriteError(w, err)
		return
	}

	breq, intent := g.transformer.Transform(req.Params())
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
		if err := openai.StreamCompletion(r.Context(), stream, model, responseID, intent, sw); err != nil {
			g.logger.Warn("chat stream aborted", "error", err, "request_id", RequestIDFromContext(r.Context()))
		}
		return
	}

	resp, err := client.Chat(r.Context(), &breq)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, openai.SynthesizeCompletion(resp, model, responseID, intent))
}
