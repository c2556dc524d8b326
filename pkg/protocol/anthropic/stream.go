package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
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

type MessageStartEvent struct {
	Type    string           `json:"type"`
	Message MessagesResponse `json:"message"`
}

type PingEvent struct {
	Type string `json:"type"`
}

type ContentBlockStartEvent struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

type ContentBlockDeltaEvent struct {
	Type  string     `json:"type"`
	Index int        `json:"index"`
	Delta BlockDelta `json:"delta"`
}

type BlockDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

type ContentBlockStopEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type MessageDeltaEvent struct {
	Type  string       `json:"type"`
	Delta MessageDelta `json:"delta"`
	Usage DeltaUsage   `json:"usage"`
}

type MessageDelta struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

type DeltaUsage struct {
	OutputTokens int `json:"output_tokens"`
}

type MessageStopEvent struct {
	Type string `json:"type"`
}

type ErrorEvent struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StreamMessages pulls backend chunks and emits the Messages API event
// sequence. Reasoning content surfaces once, as a complete thinking block
// ahead of the first text or tool_use block; later reasoning deltas are
// dropped. Backend errors terminate the stream with an error event;
// context cancellation propagates untouched.
func StreamMessages(ctx context.Context, stream ChunkSource, model, responseID string, sink EventSink) error {
	if err := sink.Event("message_start", MessageStartEvent{
		Type: "message_start",
		Message: MessagesResponse{
			ID:      "msg_" + responseID,
			Type:    "message",
			Role:    "assistant",
			Model:   model,
			Content: []ContentBlock{},
		},
	}); err != nil {
		return err
	}
	if err := sink.Event("ping", PingEvent{Type: "ping"}); err != nil {
		return err
	}

	var (
		blockStarted    bool
		thinkingEmitted bool
		isToolUse       bool
		contentIndex    int
		outputTokens    int
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
			return sendStreamError(sink, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if chunk.Usage != nil && chunk.Usage.CompletionTokens > 0 {
			outputTokens = chunk.Usage.CompletionTokens
		}

		delta := chunk.Choices[0].Delta

		if delta.ReasoningContent != nil && *delta.ReasoningContent != "" && !thinkingEmitted {
			if err := emitThinkingBlock(sink, contentIndex, *delta.ReasoningContent); err != nil {
				return err
			}
			contentIndex++
			thinkingEmitted = true
		}

		if delta.FunctionCall != nil {
			if !isToolUse {
				isToolUse = true
				if err := sink.Event("content_block_start", ContentBlockStartEvent{
					Type:  "content_block_start",
					Index: contentIndex,
					ContentBlock: toolUseBlock(
						api.NewToolUseID(),
						translate.FromBackendToolName(delta.FunctionCall.Name),
						map[string]any{},
					),
				}); err != nil {
					return err
				}
				blockStarted = true
			}
			if args := encodeArguments(delta.FunctionCall.Arguments); args != "" {
				if err := sink.Event("content_block_delta", ContentBlockDeltaEvent{
					Type:  "content_block_delta",
					Index: contentIndex,
					Delta: BlockDelta{Type: "input_json_delta", PartialJSON: args},
				}); err != nil {
					return err
				}
			}
			continue
		}

		if delta.Content == nil || *delta.Content == "" {
			continue
		}
		if !blockStarted {
			if err := sink.Event("content_block_start", ContentBlockStartEvent{
				Type:         "content_block_start",
				Index:        contentIndex,
				ContentBlock: textBlock(""),
			}); err != nil {
				return err
			}
			blockStarted = true
		}
		if err := sink.Event("content_block_delta", ContentBlockDeltaEvent{
			Type:  "content_block_delta",
			Index: contentIndex,
			Delta: BlockDelta{Type: "text_delta", Text: *delta.Content},
		}); err != nil {
			return err
		}
	}

	if blockStarted {
		if err := sink.Event("content_block_stop", ContentBlockStopEvent{
			Type:  "content_block_stop",
			Index: contentIndex,
		}); err != nil {
			return err
		}
	}

	stopReason := "end_turn"
	if isToolUse {
		stopReason = "tool_use"
	}
	if err := sink.Event("message_delta", MessageDeltaEvent{
		Type:  "message_delta",
		Delta: MessageDelta{StopReason: stopReason},
		Usage: DeltaUsage{OutputTokens: outputTokens},
	}); err != nil {
		return err
	}

	return sink.Event("message_stop", MessageStopEvent{Type: "message_stop"})
}

func emitThinkingBlock(sink EventSink, index int, reasoning string) error {
	if err := sink.Event("content_block_start", ContentBlockStartEvent{
		Type:         "content_block_start",
		Index:        index,
		ContentBlock: thinkingBlock(""),
	}); err != nil {
		return err
	}
	if err := sink.Event("content_block_delta", ContentBlockDeltaEvent{
		Type:  "content_block_delta",
		Index: index,
		Delta: BlockDelta{Type: "thinking_delta", Thinking: reasoning},
	}); err != nil {
		return err
	}
	return sink.Event("content_block_stop", ContentBlockStopEvent{
		Type:  "content_block_stop",
		Index: index,
	})
}

func encodeArguments(args any) string {
	if s, ok := args.(string); ok {
		return s
	}
	if args == nil {
		return ""
	}
	b, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(b)
}

func sendStreamError(sink EventSink, err error) error {
	message := "Stream interrupted: " + err.Error()
	var berr *backend.Error
	if errors.As(err, &berr) {
		message = berr.Message
	}
	slog.Error("streaming error", "error", err)

	return sink.Event("error", ErrorEvent{
		Type:  "error",
		Error: ErrorDetail{Type: "api_error", Message: message},
	})
}
