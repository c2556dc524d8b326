package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/chatbridge-dev/chatbridge/pkg/debug"
	"github.com/chatbridge-dev/chatbridge/pkg/observability"
)

// ChatStream is a pull-based reader of streamed chat chunks. Recv blocks
// until the next chunk is available and returns io.EOF once the backend
// signals completion. The consumer drives the pace: no chunk is read from
// the wire until the previous one has been handed off.
type ChatStream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newChatStream(ctx context.Context, body io.ReadCloser) *ChatStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ChatStream{ctx: ctx, body: body, scanner: scanner}
}

// Recv returns the next chunk. It returns io.EOF after the terminal [DONE]
// sentinel or a clean connection close, the context error if the request
// context is cancelled, and a typed *Error if the connection drops mid
// stream. Malformed chunks are logged and skipped.
func (s *ChatStream) Recv() (*ChatChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		if err := s.ctx.Err(); err != nil {
			s.done = true
			return nil, err
		}

		line := s.scanner.Text()

		// SSE lines without a data field are ignored (blank separators,
		// ": " comments, event names).
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		debug.Trace("streaming", "chunk received", "data", payload)

		if payload == "[DONE]" {
			s.done = true
			return nil, io.EOF
		}

		var chunk ChatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed stream chunk",
				"error", err.Error(),
				"data", debug.Truncate(payload, 200),
			)
			continue
		}
		if chunk.Usage != nil {
			observability.RecordTokens(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
		}

		return &chunk, nil
	}

	s.done = true

	if err := s.scanner.Err(); err != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, NewError(KindInternal, "stream read error: "+err.Error())
	}

	return nil, io.EOF
}

// Close releases the underlying connection. Safe to call more than once.
func (s *ChatStream) Close() error {
	s.done = true
	return s.body.Close()
}
