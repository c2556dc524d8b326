package anthropic

import (
	"encoding/json"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

var stopReasons = map[string]string{
	backend.FinishStop:         "end_turn",
	backend.FinishLength:       "max_tokens",
	backend.FinishFunctionCall: "tool_use",
	"content_filter":           "end_turn",
}

func mapStopReason(finishReason string) string {
	if reason, ok := stopReasons[finishReason]; ok {
		return reason
	}
	return "end_turn"
}

// SynthesizeMessage shapes a completed backend reply into a Messages API
// response. Reasoning content becomes a thinking block ahead of the text
// or tool_use block.
func SynthesizeMessage(resp *backend.ChatResponse, model, responseID string) MessagesResponse {
	out := MessagesResponse{
		ID:      "msg_" + responseID,
		Type:    "message",
		Role:    "assistant",
		Model:   model,
		Content: []ContentBlock{},
	}
	if resp.Usage != nil {
		out.Usage = Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	if len(resp.Choices) == 0 {
		reason := "end_turn"
		out.StopReason = &reason
		return out
	}

	choice := resp.Choices[0]

	if reasoning := choice.Message.ReasoningContent; reasoning != "" {
		out.Content = append(out.Content, thinkingBlock(reasoning))
	}

	if fc := choice.Message.FunctionCall; fc != nil {
		out.Content = append(out.Content, toolUseBlock(
			api.NewToolUseID(),
			translate.FromBackendToolName(fc.Name),
			toolInput(fc.Arguments),
		))
		reason := "tool_use"
		out.StopReason = &reason
	} else {
		out.Content = append(out.Content, textBlock(choice.Message.Content))
		reason := mapStopReason(choice.FinishReason)
		out.StopReason = &reason
	}

	return out
}

// toolInput coerces backend arguments into a JSON object. Unparseable
// string arguments degrade to an empty object.
func toolInput(args any) any {
	switch v := args.(type) {
	case nil:
		return map[string]any{}
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return map[string]any{}
		}
		return parsed
	default:
		return v
	}
}
