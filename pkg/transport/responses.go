package transport

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/chatbridge-dev/chatbridge/pkg/protocol/responses"
)

// handleResponses serves POST /responses.
func (g *Gateway) handleResponses(w http.ResponseWriter, r *http.Request) {
	var req responses.Request
	if !g.decodeBody(w, r, &req) {
		return
	}

	messages, err := g.normalizer.Normalize(r.Context(), req.Messages())
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
		if err := responses.StreamResponse(r.Context(), stream, &req, model, responseID, sw); err != nil {
			g.logger.Warn("responses stream aborted", "error", err, "request_id", RequestIDFromContext(r.Context()))
		}
		return
	}

	resp, err := client.Chat(r.Context(), &breq)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses.SynthesizeResponse(&req, resp, model, responseID, intent))
}
