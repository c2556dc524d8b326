// Package responses implements the Responses API dialect: input item
// translation, response synthesis, and the event lifecycle sequencer for
// streaming.
package responses

import (
	"encoding/json"

	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// Request is the Responses API request body. Tools arrive in the flat
// shape (name and parameters on the tool itself).
type Request struct {
	Model           string           `json:"model"`
	Input           InputField       `json:"input"`
	Instructions    string           `json:"instructions,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TopP            *float64         `json:"top_p,omitempty"`
	MaxOutputTokens *int             `json:"max_output_tokens,omitempty"`
	Stream          bool             `json:"stream,omitempty"`
	Tools           []translate.Tool `json:"tools,omitempty"`
	ToolChoice      any              `json:"tool_choice,omitempty"`
	Text            *TextParam       `json:"text,omitempty"`
}

// TextParam wraps the output format selector.
type TextParam struct {
	Format *translate.TextFormat `json:"format,omitempty"`
}

// Params maps the request onto the shared parameter transform input.
func (r *Request) Params() translate.Params {
	var format *translate.TextFormat
	if r.Text != nil {
		format = r.Text.Format
	}
	return translate.Params{
		Model:        r.Model,
		Temperature:  r.Temperature,
		TopP:         r.TopP,
		MaxTokens:    r.MaxOutputTokens,
		Tools:        r.Tools,
		FunctionCall: r.ToolChoice,
		TextFormat:   format,
		Stream:       r.Stream,
	}
}

// InputField is the input union: a bare string or a list of items.
type InputField struct {
	Text    string
	Items   []InputItem
	isItems bool
}

func (f *InputField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Text = s
		return nil
	}
	var items []InputItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	f.Items = items
	f.isItems = true
	return nil
}

// IsItems reports whether the input arrived as an item list.
func (f InputField) IsItems() bool {
	return f.isItems
}

// InputItem is one entry of an input item list. The type field selects
// which of the remaining fields are meaningful.
type InputItem struct {
	Type      string          `json:"type,omitempty"`
	Role      string          `json:"role,omitempty"`
	Content   ItemContent     `json:"content,omitempty"`
	Name      string          `json:"name,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Arguments string          `json:"arguments,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
}

// ItemContent is the content union of an input item: a string or a list
// of input parts.
type ItemContent struct {
	Text    string
	Parts   []InputPart
	isParts bool
}

func (c *ItemContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		return nil
	}
	var parts []InputPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	c.Parts = parts
	c.isParts = true
	return nil
}

// IsParts reports whether the content arrived as a part list.
func (c ItemContent) IsParts() bool {
	return c.isParts
}

// InputPart is one multimodal content part. The Responses API carries the
// image URL as a plain string.
type InputPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Response is the response object, used verbatim in both the final body
// and the lifecycle events.
type Response struct {
	ID                 string         `json:"id"`
	Object             string         `json:"object"`
	CreatedAt          int64          `json:"created_at"`
	Status             string         `json:"status"`
	Error              any            `json:"error"`
	IncompleteDetails  any            `json:"incomplete_details"`
	Instructions       *string        `json:"instructions"`
	MaxOutputTokens    *int           `json:"max_output_tokens"`
	Model              string         `json:"model"`
	Output             []OutputItem   `json:"output"`
	ParallelToolCalls  bool           `json:"parallel_tool_calls"`
	PreviousResponseID *string        `json:"previous_response_id"`
	Reasoning          Reasoning      `json:"reasoning"`
	Store              bool           `json:"store"`
	Temperature        float64        `json:"temperature"`
	Text               TextParam      `json:"text"`
	ToolChoice         string         `json:"tool_choice"`
	Tools              []any          `json:"tools"`
	TopP               float64        `json:"top_p"`
	Truncation         string         `json:"truncation"`
	Usage              *Usage         `json:"usage"`
	User               any            `json:"user"`
	Metadata           map[string]any `json:"metadata"`
}

type Reasoning struct {
	Effort  any `json:"effort"`
	Summary any `json:"summary"`
}

// OutputItem is a message or function_call output entry.
type OutputItem struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Status    string        `json:"status"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentItem `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments *string       `json:"arguments,omitempty"`
}

type ContentItem struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Annotations []any  `json:"annotations"`
}

// Usage is the Responses API token accounting shape.
type Usage struct {
	InputTokens        int                `json:"input_tokens"`
	OutputTokens       int                `json:"output_tokens"`
	TotalTokens        int                `json:"total_tokens"`
	PromptTokenDetails CachedTokenDetails `json:"prompt_tokens_details"`
	InputTokenDetails  CachedTokenDetails `json:"input_tokens_details"`
	OutputTokenDetails ReasoningDetails   `json:"output_tokens_details"`
}

type CachedTokenDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

type ReasoningDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}
