package responses

import (
	"encoding/json"
	"time"

	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// SynthesizeResponse shapes a completed backend reply into a response
// object. The request is consulted to echo instructions and the text
// format back to the client.
func SynthesizeResponse(req *Request, resp *backend.ChatResponse, model, responseID string, intent translate.Intent) Response {
	out := newResponse(req, model, responseID, "completed")
	out.Usage = buildUsage(resp.Usage)

	if len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	isToolCall := choice.FinishReason == backend.FinishFunctionCall

	switch {
	case isToolCall && !intent.FunctionConstrained():
		out.Output = []OutputItem{functionCallItem(choice.Message.FunctionCall, responseID, "completed")}

	case isToolCall && intent.FunctionConstrained():
		out.Output = []OutputItem{messageItem(responseID, encodeArguments(argumentsOf(choice.Message.FunctionCall)))}

	default:
		out.Output = []OutputItem{messageItem(responseID, choice.Message.Content)}
	}

	return out
}

func newResponse(req *Request, model, responseID, status string) Response {
	var instructions *string
	var maxOutputTokens *int
	temperature := 1.0
	topP := 1.0
	text := TextParam{Format: &translate.TextFormat{Type: "text"}}

	if req != nil {
		if req.Instructions != "" {
			instructions = &req.Instructions
		}
		maxOutputTokens = req.MaxOutputTokens
		if req.Temperature != nil {
			temperature = *req.Temperature
		}
		if req.TopP != nil {
			topP = *req.TopP
		}
		if req.Text != nil {
			text = *req.Text
		}
	}

	return Response{
		ID:              "resp_" + responseID,
		Object:          "response",
		CreatedAt:       time.Now().Unix(),
		Status:          status,
		Instructions:    instructions,
		MaxOutputTokens: maxOutputTokens,
		Model:           model,
		Output:          []OutputItem{},

		ParallelToolCalls: true,
		Store:             true,
		Temperature:       temperature,
		Text:              text,
		ToolChoice:        "auto",
		Tools:             []any{},
		TopP:              topP,
		Truncation:        "disabled",
		Metadata:          map[string]any{},
	}
}

func messageItem(responseID, text string) OutputItem {
	return OutputItem{
		ID:     "msg_" + responseID,
		Type:   "message",
		Status: "completed",
		Role:   "assistant",
		Content: []ContentItem{{
			Type:        "output_text",
			Text:        text,
			Annotations: []any{},
		}},
	}
}

func functionCallItem(fc *backend.FunctionCall, responseID, status string) OutputItem {
	name := ""
	args := "{}"
	if fc != nil {
		name = translate.FromBackendToolName(fc.Name)
		args = encodeArguments(fc.Arguments)
	}
	return OutputItem{
		ID:        "fc_" + responseID,
		Type:      "function_call",
		Status:    status,
		CallID:    "call_" + responseID,
		Name:      name,
		Arguments: &args,
	}
}

func argumentsOf(fc *backend.FunctionCall) any {
	if fc == nil {
		return map[string]any{}
	}
	return fc.Arguments
}

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
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
		PromptTokenDetails: CachedTokenDetails{
			CachedTokens: u.PrecachedPromptTokens,
		},
	}
}
