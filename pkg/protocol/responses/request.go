package responses

import (
	"encoding/json"

	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// Messages flattens instructions and input into the protocol-neutral
// message list. Function call items become assistant turns carrying the
// call, and function_call_output items become tool turns named after the
// preceding call when they do not name one themselves.
func (r *Request) Messages() []translate.Message {
	var messages []translate.Message

	if r.Instructions != "" {
		messages = append(messages, translate.Message{
			Role:    "system",
			Content: translate.TextContent(r.Instructions),
		})
	}

	if !r.Input.IsItems() {
		if r.Input.Text != "" {
			messages = append(messages, translate.Message{
				Role:    "user",
				Content: translate.TextContent(r.Input.Text),
			})
		}
		return messages
	}

	lastFunctionName := ""
	for _, item := range r.Input.Items {
		switch item.Type {
		case "function_call_output":
			name := item.Name
			if name == "" {
				name = lastFunctionName
			}
			messages = append(messages, translate.Message{
				Role:    "tool",
				Name:    name,
				Content: translate.TextContent(outputText(item.Output)),
			})

		case "function_call":
			if item.Name != "" {
				lastFunctionName = item.Name
			}
			messages = append(messages, translate.Message{
				Role: "assistant",
				FunctionCall: &translate.FunctionCall{
					Name:      item.Name,
					Arguments: item.Arguments,
				},
			})

		default:
			if item.Role == "" {
				continue
			}
			messages = append(messages, translate.Message{
				Role:    item.Role,
				Content: itemContent(item.Content),
			})
		}
	}

	return messages
}

// outputText renders a function call output for tool-result coercion.
// String outputs are unwrapped; anything else passes as raw JSON text.
func outputText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func itemContent(content ItemContent) translate.MessageContent {
	if !content.IsParts() {
		return translate.TextContent(content.Text)
	}
	var parts []translate.ContentPart
	for _, part := range content.Parts {
		switch part.Type {
		case "input_text":
			parts = append(parts, translate.ContentPart{Type: "text", Text: part.Text})
		case "input_image":
			parts = append(parts, translate.ContentPart{
				Type:     "image_url",
				ImageURL: &translate.ImageRef{URL: part.ImageURL},
			})
		}
	}
	return translate.PartsContent(parts)
}
