package anthropic

import (
	"strings"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// Params maps the request onto the shared parameter transform input.
// tool_choice type "tool" pins the named function; type "none" drops the
// tools entirely. A thinking budget selects the reasoning effort.
func (r *MessagesRequest) Params() translate.Params {
	params := translate.Params{
		Model:       r.Model,
		Temperature: r.Temperature,
		TopP:        r.TopP,
		MaxTokens:   r.MaxTokens,
		Tools:       convertTools(r.Tools),
		Stream:      r.Stream,
	}
	if len(r.StopSequences) > 0 {
		params.Stop = r.StopSequences
	}

	if r.ToolChoice != nil {
		switch r.ToolChoice.Type {
		case "tool":
			params.FunctionCall = map[string]any{"name": r.ToolChoice.Name}
		case "none":
			params.Tools = nil
		}
	}

	if r.Thinking != nil && r.Thinking.Type == "enabled" {
		budget := r.Thinking.BudgetTokens
		if budget == 0 {
			budget = 10000
		}
		switch {
		case budget >= 8000:
			params.ReasoningEffort = "high"
		case budget >= 3000:
			params.ReasoningEffort = "medium"
		default:
			params.ReasoningEffort = "low"
		}
	}

	return params
}

func convertTools(tools []Tool) []translate.Tool {
	var out []translate.Tool
	for _, tool := range tools {
		schema := tool.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, translate.Tool{
			Type: "function",
			Function: &translate.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  schema,
			},
		})
	}
	return out
}

// Messages flattens the system prompt and content blocks into the
// protocol-neutral message list. Tool results become tool turns named via
// the tool_use id they answer, and tool_use blocks become assistant tool
// calls.
func (r *MessagesRequest) Messages() []translate.Message {
	var messages []translate.Message

	if prompt := r.System.Prompt(); prompt != "" {
		messages = append(messages, translate.Message{
			Role:    "system",
			Content: translate.TextContent(prompt),
		})
	}

	// tool_use id to function name, for naming tool_result turns
	toolUseNames := map[string]string{}

	for _, msg := range r.InboundMessages {
		role := msg.Role
		if role == "" {
			role = "user"
		}

		if !msg.Content.IsBlocks() {
			messages = append(messages, translate.Message{
				Role:    role,
				Content: translate.TextContent(msg.Content.Text),
			})
			continue
		}

		switch role {
		case "assistant":
			for _, block := range msg.Content.Blocks {
				if block.Type == "tool_use" {
					toolUseNames[block.ID] = block.Name
				}
			}
			messages = append(messages, convertAssistantBlocks(msg.Content.Blocks))
		case "user":
			messages = append(messages, convertUserBlocks(msg.Content.Blocks, toolUseNames)...)
		default:
			messages = append(messages, translate.Message{
				Role:    role,
				Content: translate.TextContent(joinTextBlocks(msg.Content.Blocks)),
			})
		}
	}

	return messages
}

func convertAssistantBlocks(blocks []Block) translate.Message {
	var texts []string
	var toolCalls []translate.ToolCall

	for _, block := range blocks {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			id := block.ID
			if id == "" {
				id = api.NewCallID()
			}
			args := "{}"
			if len(block.Input) > 0 {
				args = string(block.Input)
			}
			toolCalls = append(toolCalls, translate.ToolCall{
				ID:       id,
				Type:     "function",
				Function: translate.ToolCallFunction{Name: block.Name, Arguments: args},
			})
		}
	}

	return translate.Message{
		Role:      "assistant",
		Content:   translate.TextContent(strings.Join(texts, "\n")),
		ToolCalls: toolCalls,
	}
}

func convertUserBlocks(blocks []Block, toolUseNames map[string]string) []translate.Message {
	var texts []string
	var parts []translate.ContentPart
	var results []Block
	hasImages := false

	for _, block := range blocks {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
			parts = append(parts, translate.ContentPart{Type: "text", Text: block.Text})
		case "image":
			if block.Source == nil {
				continue
			}
			hasImages = true
			url := block.Source.URL
			if block.Source.Type == "base64" {
				mediaType := block.Source.MediaType
				if mediaType == "" {
					mediaType = "image/png"
				}
				url = "data:" + mediaType + ";base64," + block.Source.Data
			}
			parts = append(parts, translate.ContentPart{
				Type:     "image_url",
				ImageURL: &translate.ImageRef{URL: url},
			})
		case "tool_result":
			results = append(results, block)
		}
	}

	var messages []translate.Message

	// Tool results come first so they sit next to the call they answer.
	for _, result := range results {
		content := result.Content.Text
		if result.Content.IsBlocks() {
			content = joinTextBlocks(result.Content.Blocks)
		}
		messages = append(messages, translate.Message{
			Role:       "tool",
			ToolCallID: result.ToolUseID,
			Name:       toolUseNames[result.ToolUseID],
			Content:    translate.TextContent(content),
		})
	}

	switch {
	case hasImages && len(parts) > 0:
		messages = append(messages, translate.Message{
			Role:    "user",
			Content: translate.PartsContent(parts),
		})
	case len(texts) > 0:
		messages = append(messages, translate.Message{
			Role:    "user",
			Content: translate.TextContent(strings.Join(texts, "\n")),
		})
	}

	return messages
}
