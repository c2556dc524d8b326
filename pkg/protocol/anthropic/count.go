package anthropic

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// TokenCounter abstracts the backend token-count call. Satisfied by
// *backend.Client.
type TokenCounter interface {
	TokensCount(ctx context.Context, texts []string, model string) ([]backend.TokensCount, error)
}

// ExtractTexts flattens normalized messages into countable text. Tool
// calls contribute their name and argument payload.
func ExtractTexts(messages []translate.Message) []string {
	var texts []string
	for _, msg := range messages {
		if msg.Content.IsParts() {
			for _, part := range msg.Content.Parts {
				if part.Type == "text" && part.Text != "" {
					texts = append(texts, part.Text)
				}
			}
		} else if msg.Content.Text != "" {
			texts = append(texts, msg.Content.Text)
		}
		for _, call := range msg.ToolCalls {
			if call.Function.Name != "" {
				texts = append(texts, call.Function.Name)
			}
			if call.Function.Arguments != "" {
				texts = append(texts, call.Function.Arguments)
			}
		}
		if msg.FunctionCall != nil {
			if msg.FunctionCall.Name != "" {
				texts = append(texts, msg.FunctionCall.Name)
			}
			if msg.FunctionCall.Arguments != "" {
				texts = append(texts, msg.FunctionCall.Arguments)
			}
		}
	}
	return texts
}

// ExtractToolTexts renders tool definitions as countable text, one entry
// per tool with name, description, and schema joined by spaces.
func ExtractToolTexts(tools []Tool) []string {
	var texts []string
	for _, tool := range tools {
		fields := []string{tool.Name}
		if tool.Description != "" {
			fields = append(fields, tool.Description)
		}
		if tool.InputSchema != nil {
			if b, err := json.Marshal(tool.InputSchema); err == nil {
				fields = append(fields, string(b))
			}
		}
		texts = append(texts, strings.Join(fields, " "))
	}
	return texts
}

// CountTokens sums backend token counts over the request's message and
// tool texts. An empty request counts as zero without a backend call.
func CountTokens(ctx context.Context, counter TokenCounter, req *MessagesRequest, model string) (CountTokensResponse, error) {
	texts := ExtractTexts(req.Messages())
	texts = append(texts, ExtractToolTexts(req.Tools)...)
	if len(texts) == 0 {
		return CountTokensResponse{InputTokens: 0}, nil
	}

	counts, err := counter.TokensCount(ctx, texts, model)
	if err != nil {
		return CountTokensResponse{}, err
	}

	total := 0
	for _, c := range counts {
		total += c.Tokens
	}
	return CountTokensResponse{InputTokens: total}, nil
}
