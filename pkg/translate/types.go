package translate

import (
	"bytes"
	"encoding/json"
)

// Message is the protocol-neutral inbound message shape the protocol
// adapters lift their wire formats into before normalization.
type Message struct {
	Role         string         `json:"role"`
	Content      MessageContent `json:"content"`
	Name         string         `json:"name,omitempty"`
	ToolCalls    []ToolCall     `json:"tool_calls,omitempty"`
	FunctionCall *FunctionCall  `json:"function_call,omitempty"`
	ToolCallID   string         `json:"tool_call_id,omitempty"`
}

// MessageContent is either a plain string or an ordered list of parts.
type MessageContent struct {
	Text  string
	Parts []ContentPart

	isParts bool
}

// TextContent wraps a plain string as message content.
func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// PartsContent wraps a part list as message content.
func PartsContent(parts []ContentPart) MessageContent {
	return MessageContent{Parts: parts, isParts: true}
}

// IsParts reports whether the content is a part list.
func (c MessageContent) IsParts() bool {
	return c.isParts
}

// UnmarshalJSON accepts a JSON string, a part array, or null.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = MessageContent{}
		return nil
	}

	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = MessageContent{Text: text}
		return nil
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = MessageContent{Parts: parts, isParts: true}
		return nil
	default:
		// Scalars and objects are kept as their raw JSON text.
		*c = MessageContent{Text: string(data)}
		return nil
	}
}

// MarshalJSON renders the content in its original shape.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isParts {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// ContentPart is one element of compound message content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
	File     *FileRef  `json:"file,omitempty"`
}

// ImageRef references image content by URL or data URI.
type ImageRef struct {
	URL string `json:"url"`
}

// FileRef carries inline file content, typically a data URI, with an
// optional filename used for kind classification.
type FileRef struct {
	Filename string `json:"filename,omitempty"`
	FileData string `json:"file_data,omitempty"`
}

// ToolCall is an OpenAI-shaped tool invocation on an assistant message.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction is the function slot of a tool call. Arguments is the
// wire-level JSON string.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionCall is the legacy function-call shape on an inbound assistant
// message.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Tool declares a callable tool. Newer clients nest the declaration under
// Function; older ones put name/description/parameters at the top level.
type Tool struct {
	Type     string        `json:"type"`
	Function *ToolFunction `json:"function,omitempty"`

	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolFunction is the nested function declaration of a tool.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ResponseFormat is the Chat Completions response_format field.
type ResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *JSONSchemaSpec `json:"json_schema,omitempty"`
}

// TextFormat is the Responses API text.format field. The schema arrives
// either nested under json_schema or flattened onto the format object.
type TextFormat struct {
	Type       string          `json:"type"`
	Name       string          `json:"name,omitempty"`
	Schema     map[string]any  `json:"schema,omitempty"`
	Strict     *bool           `json:"strict,omitempty"`
	JSONSchema *JSONSchemaSpec `json:"json_schema,omitempty"`
}

// JSONSchemaSpec names a JSON Schema for structured output.
type JSONSchemaSpec struct {
	Name   string         `json:"name,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// Intent records whether a reply must be unwrapped from a forced function
// call back into plain content. It is threaded per request from the
// parameter transform to the synthesizer, never stored on shared state.
type Intent struct {
	// SchemaName is the forced function name when structured output is
	// emulated; empty for plain requests.
	SchemaName string
}

// FunctionConstrained reports whether the reply is a structured-output
// emulation.
func (i Intent) FunctionConstrained() bool {
	return i.SchemaName != ""
}
