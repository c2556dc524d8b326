package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// Sink receives chat completion stream frames. Send writes one data frame,
// Done writes the [DONE] sentinel.
type Sink interface {
	Send(v any) error
	Done() error
}

// ChunkSource yields backend stream chunks until io.EOF. Satisfied by
// *backend.ChatStream.
type ChunkSource interface {
	Recv() (*backend.ChatChunk, error)
}

// StreamCompletion pulls chunks from the backend stream and writes
// chat.completion.chunk frames to the sink. Backend failures mid-stream
// are reported in-band followed by the [DONE] sentinel, so clients that
// only watch for the sentinel still terminate. Context cancellation
// propagates to the caller untouched.
func StreamCompletion(ctx context.Context, stream ChunkSource, model, responseID string, intent translate.Intent, sink Sink) error {
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return sendStreamError(sink, err)
		}
		if err := sink.Send(SynthesizeChunk(chunk, model, responseID, intent)); err != nil {
			return err
		}
	}
	return sink.Done()
}

func sendStreamError(sink Sink, err error) error {
	code := "internal_error"
	message := "Stream interrupted: " + err.Error()
	errType := "internal"

	var berr *backend.Error
	if errors.As(err, &berr) {
		code = "stream_error"
		message = berr.Message
		errType = berr.Kind.String()
	}
	slog.Error("streaming error", "code", code, "error", err)

	frame := api.ErrorResponse{Error: &api.APIError{
		Message: message,
		Type:    api.ErrorType(errType),
		Code:    code,
	}}
	if err := sink.Send(frame); err != nil {
		return err
	}
	return sink.Done()
}
