// Package anthropic implements the Messages API dialect: content block
// translation, response synthesis, the streaming event sequence, and
// token counting.
package anthropic

import (
	"encoding/json"
)

// MessagesRequest is the Messages API request body.
type MessagesRequest struct {
	Model           string           `json:"model"`
	MaxTokens       *int             `json:"max_tokens,omitempty"`
	System          SystemField      `json:"system,omitempty"`
	InboundMessages []InboundMessage `json:"messages"`
	Tools           []Tool           `json:"tools,omitempty"`
	ToolChoice      *ToolChoice      `json:"tool_choice,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TopP            *float64         `json:"top_p,omitempty"`
	StopSequences   []string         `json:"stop_sequences,omitempty"`
	Stream          bool             `json:"stream,omitempty"`
	Thinking        *Thinking        `json:"thinking,omitempty"`
}

// SystemField is the system prompt union: a string or text blocks.
type SystemField struct {
	Text   string
	Blocks []Block
}

func (s *SystemField) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		s.Text = text
		return nil
	}
	return json.Unmarshal(data, &s.Blocks)
}

// Prompt flattens the system field to a single string.
func (s SystemField) Prompt() string {
	if s.Text != "" {
		return s.Text
	}
	return joinTextBlocks(s.Blocks)
}

// InboundMessage is one conversation turn.
type InboundMessage struct {
	Role    string    `json:"role"`
	Content BlockList `json:"content"`
}

// BlockList is the message content union: a string or content blocks.
type BlockList struct {
	Text     string
	Blocks   []Block
	isBlocks bool
}

func (b *BlockList) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		b.Text = text
		return nil
	}
	if err := json.Unmarshal(data, &b.Blocks); err != nil {
		return err
	}
	b.isBlocks = true
	return nil
}

// IsBlocks reports whether the content arrived as a block array.
func (b BlockList) IsBlocks() bool {
	return b.isBlocks
}

// Block is one inbound content block. The type field selects which of the
// remaining fields are meaningful.
type Block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Source    *ImageSource    `json:"source,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   BlockList       `json:"content,omitempty"`
}

// ImageSource points at image bytes, inline or by URL.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Tool is an Anthropic tool declaration; the schema lives under
// input_schema rather than parameters.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type Thinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

// MessagesResponse is the Messages API response body, also reused inside
// the message_start stream event with a null stop_reason.
type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *string        `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// ContentBlock is an outbound content block. Text and Thinking are
// pointers so empty strings still serialize for their block types.
type ContentBlock struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Thinking *string `json:"thinking,omitempty"`
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Input    any     `json:"input,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// CountTokensResponse is the count_tokens reply.
type CountTokensResponse struct {
	InputTokens int `json:"input_tokens"`
}

func joinTextBlocks(blocks []Block) string {
	out := ""
	for _, block := range blocks {
		if block.Type != "text" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += block.Text
	}
	return out
}

func textBlock(s string) ContentBlock {
	return ContentBlock{Type: "text", Text: &s}
}

func thinkingBlock(s string) ContentBlock {
	return ContentBlock{Type: "thinking", Thinking: &s}
}

func toolUseBlock(id, name string, input any) ContentBlock {
	return ContentBlock{Type: "tool_use", ID: id, Name: name, Input: input}
}
