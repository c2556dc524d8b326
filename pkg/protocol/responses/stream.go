package responses

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// EventSink receives named SSE events.
type EventSink interface {
	Event(name string, v any) error
}

// ChunkSource yields backend stream chunks until io.EOF. Satisfied by
// *backend.ChatStream.
type ChunkSource interface {
	Recv() (*backend.ChatChunk, error)
}

// ResponseEvent wraps the response object for lifecycle events.
type ResponseEvent struct {
	Type           string   `json:"type"`
	Response       Response `json:"response"`
	SequenceNumber int      `json:"sequence_number"`
}

// OutputItemEvent announces an output item being added or completed.
type OutputItemEvent struct {
	Type           string     `json:"type"`
	OutputIndex    int        `json:"output_index"`
	Item           OutputItem `json:"item"`
	SequenceNumber int        `json:"sequence_number"`
}

type ContentPartEvent struct {
	Type           string      `json:"type"`
	ItemID         string      `json:"item_id"`
	OutputIndex    int         `json:"output_index"`
	ContentIndex   int         `json:"content_index"`
	Part           ContentItem `json:"part"`
	SequenceNumber int         `json:"sequence_number"`
}

type TextDeltaEvent struct {
	Type           string `json:"type"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	ContentIndex   int    `json:"content_index"`
	Delta          string `json:"delta"`
	Logprobs       []any  `json:"logprobs"`
	SequenceNumber int    `json:"sequence_number"`
}

type TextDoneEvent struct {
	Type           string `json:"type"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	ContentIndex   int    `json:"content_index"`
	Text           string `json:"text"`
	SequenceNumber int    `json:"sequence_number"`
}

type ArgumentsDeltaEvent struct {
	Type           string `json:"type"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	Delta          string `json:"delta"`
	SequenceNumber int    `json:"sequence_number"`
}

type ArgumentsDoneEvent struct {
	Type           string `json:"type"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	Name           string `json:"name"`
	Arguments      string `json:"arguments"`
	SequenceNumber int    `json:"sequence_number"`
}

type ErrorEvent struct {
	Type           string  `json:"type"`
	Code           string  `json:"code"`
	Message        string  `json:"message"`
	Param          *string `json:"param"`
	SequenceNumber int     `json:"sequence_number"`
}

// sequencer drives the response event lifecycle with monotonically
// increasing sequence numbers.
type sequencer struct {
	sink EventSink
	seq  int
}

func (s *sequencer) next() int {
	n := s.seq
	s.seq++
	return n
}

func (s *sequencer) event(name string, build func(seq int) any) error {
	return s.sink.Event(name, build(s.next()))
}

// StreamResponse pulls backend chunks and emits the Responses API event
// lifecycle: created and in_progress, the streamed output item, its done
// events, and completed. Errors mid-stream terminate the stream with an
// error event; context cancellation propagates untouched.
func StreamResponse(ctx context.Context, stream ChunkSource, req *Request, model, responseID string, sink EventSink) error {
	seq := &sequencer{sink: sink}
	msgID := "msg_" + responseID
	fcID := "fc_" + responseID

	emitLifecycle := func(name, status string, output []OutputItem, usage *Usage) error {
		return seq.event(name, func(n int) any {
			resp := newResponse(req, model, responseID, status)
			if output != nil {
				resp.Output = output
			}
			resp.Usage = usage
			return ResponseEvent{Type: name, Response: resp, SequenceNumber: n}
		})
	}

	if err := emitLifecycle("response.created", "in_progress", nil, nil); err != nil {
		return err
	}
	if err := emitLifecycle("response.in_progress", "in_progress", nil, nil); err != nil {
		return err
	}

	var (
		fullText        string
		fnName          string
		fnArguments     string
		isFunctionCall  bool
		outputItemAdded bool
		usage           *Usage
	)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return sendStreamError(seq, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if chunk.Usage != nil {
			usage = buildUsage(chunk.Usage)
		}

		delta := chunk.Choices[0].Delta

		if delta.FunctionCall != nil {
			isFunctionCall = true
			if !outputItemAdded {
				fnName = translate.FromBackendToolName(delta.FunctionCall.Name)
				empty := ""
				if err := seq.event("response.output_item.added", func(n int) any {
					return OutputItemEvent{
						Type:        "response.output_item.added",
						OutputIndex: 0,
						Item: OutputItem{
							ID:        fcID,
							Type:      "function_call",
							Status:    "in_progress",
							CallID:    "call_" + responseID,
							Name:      fnName,
							Arguments: &empty,
						},
						SequenceNumber: n,
					}
				}); err != nil {
					return err
				}
				outputItemAdded = true
			}
			if delta.FunctionCall.Name != "" {
				fnName = translate.FromBackendToolName(delta.FunctionCall.Name)
			}
			if args := encodeArguments(delta.FunctionCall.Arguments); args != "" {
				fnArguments += args
				if err := seq.event("response.function_call_arguments.delta", func(n int) any {
					return ArgumentsDeltaEvent{
						Type:           "response.function_call_arguments.delta",
						ItemID:         fcID,
						OutputIndex:    0,
						Delta:          args,
						SequenceNumber: n,
					}
				}); err != nil {
					return err
				}
			}
			continue
		}

		if delta.Content == nil || *delta.Content == "" {
			continue
		}

		if !outputItemAdded {
			if err := emitMessageOpen(seq, msgID); err != nil {
				return err
			}
			outputItemAdded = true
		}
		fullText += *delta.Content
		if err := seq.event("response.output_text.delta", func(n int) any {
			return TextDeltaEvent{
				Type:           "response.output_text.delta",
				ItemID:         msgID,
				OutputIndex:    0,
				ContentIndex:   0,
				Delta:          *delta.Content,
				Logprobs:       []any{},
				SequenceNumber: n,
			}
		}); err != nil {
			return err
		}
	}

	if isFunctionCall {
		if err := seq.event("response.function_call_arguments.done", func(n int) any {
			return ArgumentsDoneEvent{
				Type:           "response.function_call_arguments.done",
				ItemID:         fcID,
				OutputIndex:    0,
				Name:           fnName,
				Arguments:      fnArguments,
				SequenceNumber: n,
			}
		}); err != nil {
			return err
		}

		doneItem := OutputItem{
			ID:        fcID,
			Type:      "function_call",
			Status:    "completed",
			CallID:    "call_" + responseID,
			Name:      fnName,
			Arguments: &fnArguments,
		}
		if err := seq.event("response.output_item.done", func(n int) any {
			return OutputItemEvent{
				Type:           "response.output_item.done",
				OutputIndex:    0,
				Item:           doneItem,
				SequenceNumber: n,
			}
		}); err != nil {
			return err
		}
		return emitLifecycle("response.completed", "completed", []OutputItem{doneItem}, usage)
	}

	if !outputItemAdded {
		if err := emitMessageOpen(seq, msgID); err != nil {
			return err
		}
	}

	if err := seq.event("response.output_text.done", func(n int) any {
		return TextDoneEvent{
			Type:           "response.output_text.done",
			ItemID:         msgID,
			OutputIndex:    0,
			ContentIndex:   0,
			Text:           fullText,
			SequenceNumber: n,
		}
	}); err != nil {
		return err
	}

	part := ContentItem{Type: "output_text", Text: fullText, Annotations: []any{}}
	if err := seq.event("response.content_part.done", func(n int) any {
		return ContentPartEvent{
			Type:           "response.content_part.done",
			ItemID:         msgID,
			OutputIndex:    0,
			ContentIndex:   0,
			Part:           part,
			SequenceNumber: n,
		}
	}); err != nil {
		return err
	}

	doneItem := OutputItem{
		ID:      msgID,
		Type:    "message",
		Status:  "completed",
		Role:    "assistant",
		Content: []ContentItem{part},
	}
	if err := seq.event("response.output_item.done", func(n int) any {
		return OutputItemEvent{
			Type:           "response.output_item.done",
			OutputIndex:    0,
			Item:           doneItem,
			SequenceNumber: n,
		}
	}); err != nil {
		return err
	}

	return emitLifecycle("response.completed", "completed", []OutputItem{doneItem}, usage)
}

func emitMessageOpen(seq *sequencer, msgID string) error {
	if err := seq.event("response.output_item.added", func(n int) any {
		return OutputItemEvent{
			Type:        "response.output_item.added",
			OutputIndex: 0,
			Item: OutputItem{
				ID:      msgID,
				Type:    "message",
				Status:  "in_progress",
				Role:    "assistant",
				Content: []ContentItem{},
			},
			SequenceNumber: n,
		}
	}); err != nil {
		return err
	}
	return seq.event("response.content_part.added", func(n int) any {
		return ContentPartEvent{
			Type:           "response.content_part.added",
			ItemID:         msgID,
			OutputIndex:    0,
			ContentIndex:   0,
			Part:           ContentItem{Type: "output_text", Text: "", Annotations: []any{}},
			SequenceNumber: n,
		}
	})
}

func sendStreamError(seq *sequencer, err error) error {
	code := "internal_error"
	message := "Stream interrupted: " + err.Error()

	var berr *backend.Error
	if errors.As(err, &berr) {
		code = "stream_error"
		message = berr.Message
	}
	slog.Error("streaming error", "code", code, "error", err)

	return seq.event("error", func(n int) any {
		return ErrorEvent{
			Type:           "error",
			Code:           code,
			Message:        message,
			SequenceNumber: n,
		}
	})
}
