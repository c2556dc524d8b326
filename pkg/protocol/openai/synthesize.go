package openai

import (
	"encoding/json"
	"time"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// SynthesizeCompletion shapes a backend reply into a chat.completion.
// The backend's single-function-call model is widened back to tool_calls,
// and structured-output emulation is unwrapped into plain content.
func SynthesizeCompletion(resp *backend.ChatResponse, model, responseID string, intent translate.Intent) Completion {
	out := Completion{
		ID:                "chatcmpl-" + responseID,
		Object:            "chat.completion",
		Created:           time.Now().Unix(),
		Model:             model,
		Usage:             buildUsage(resp.Usage),
		SystemFingerprint: "fp_" + responseID,
	}

	isToolCall := len(resp.Choices) > 0 && resp.Choices[0].FinishReason == backend.FinishFunctionCall

	for _, choice := range resp.Choices {
		msg := &OutputMessage{Role: choice.Message.Role}
		finish := choice.FinishReason

		switch {
		case intent.FunctionConstrained() && isToolCall:
			content := encodeArguments(argumentsOf(choice.Message.FunctionCall))
			msg.Content = &content
			finish = backend.FinishStop

		case choice.Message.FunctionCall != nil:
			fc := FunctionCall{
				Name:      translate.FromBackendToolName(choice.Message.FunctionCall.Name),
				Arguments: encodeArguments(choice.Message.FunctionCall.Arguments),
			}
			if isToolCall {
				msg.Content = nil
				msg.ToolCalls = []ToolCall{{
					Index:    0,
					ID:       api.NewCallID(),
					Type:     "function",
					Function: fc,
				}}
				finish = "tool_calls"
			} else {
				content := choice.Message.Content
				msg.Content = &content
				msg.FunctionCall = &fc
			}

		default:
			content := choice.Message.Content
			msg.Content = &content
		}

		out.Choices = append(out.Choices, Choice{
			Index:        0,
			Message:      msg,
			FinishReason: &finish,
		})
	}

	return out
}

// SynthesizeChunk shapes a backend stream chunk into a
// chat.completion.chunk. A chunk is treated as a tool call only once the
// backend has set the function_call finish reason, matching the
// non-streaming classification.
func SynthesizeChunk(chunk *backend.ChatChunk, model, responseID string, intent translate.Intent) Completion {
	out := Completion{
		ID:                "chatcmpl-" + responseID,
		Object:            "chat.completion.chunk",
		Created:           time.Now().Unix(),
		Model:             model,
		Usage:             buildUsage(chunk.Usage),
		SystemFingerprint: "fp_" + responseID,
	}

	isToolCall := len(chunk.Choices) > 0 &&
		chunk.Choices[0].FinishReason != nil &&
		*chunk.Choices[0].FinishReason == backend.FinishFunctionCall

	for _, choice := range chunk.Choices {
		delta := &OutputMessage{Role: choice.Delta.Role, Content: choice.Delta.Content}
		if choice.Delta.ReasoningContent != nil {
			delta.ReasoningContent = *choice.Delta.ReasoningContent
		}
		finish := choice.FinishReason

		switch {
		case intent.FunctionConstrained():
			if choice.Delta.FunctionCall != nil {
				content := encodeArguments(choice.Delta.FunctionCall.Arguments)
				delta.Content = &content
			}
			if finish != nil {
				stop := backend.FinishStop
				finish = &stop
			}

		case choice.Delta.FunctionCall != nil:
			fc := FunctionCall{
				Name:      translate.FromBackendToolName(choice.Delta.FunctionCall.Name),
				Arguments: encodeArguments(choice.Delta.FunctionCall.Arguments),
			}
			if isToolCall {
				delta.ToolCalls = []ToolCall{{
					Index:    0,
					ID:       api.NewCallID(),
					Type:     "function",
					Function: fc,
				}}
			} else {
				delta.FunctionCall = &fc
			}
		}

		if finish != nil && *finish == backend.FinishFunctionCall && !intent.FunctionConstrained() {
			toolCalls := "tool_calls"
			finish = &toolCalls
		}

		out.Choices = append(out.Choices, Choice{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		})
	}

	return out
}

func argumentsOf(fc *backend.FunctionCall) any {
	if fc == nil {
		return map[string]any{}
	}
	return fc.Arguments
}

// encodeArguments renders function arguments as the JSON string the wire
// format requires. String arguments pass through untouched.
func encodeArguments(args any) string {
	if s, ok := args.(string); ok {
		return s
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func buildUsage(u *backend.Usage) *Usage {
	if u == nil {
		return nil
	}
	return &Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		PromptTokensDetails: PromptTokensDetails{
			CachedTokens: u.PrecachedPromptTokens,
		},
	}
}
