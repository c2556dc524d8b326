// Package openai implements the Chat Completions dialect: parsing inbound
// requests into the protocol-neutral form and synthesizing completions and
// stream chunks from backend replies.
package openai

import (
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

// Request is the Chat Completions request body. Legacy functions fields
// are accepted alongside tools.
type Request struct {
	Model               string                    `json:"model"`
	Messages            []translate.Message       `json:"messages"`
	Temperature         *float64                  `json:"temperature,omitempty"`
	TopP                *float64                  `json:"top_p,omitempty"`
	MaxTokens           *int                      `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int                      `json:"max_completion_tokens,omitempty"`
	Stream              bool                      `json:"stream,omitempty"`
	Stop                any                       `json:"stop,omitempty"`
	Tools               []translate.Tool          `json:"tools,omitempty"`
	ToolChoice          any                       `json:"tool_choice,omitempty"`
	Functions           []translate.ToolFunction  `json:"functions,omitempty"`
	FunctionCall        any                       `json:"function_call,omitempty"`
	ResponseFormat      *translate.ResponseFormat `json:"response_format,omitempty"`
	User                string                    `json:"user,omitempty"`
}

// Params maps the request onto the shared parameter transform input.
func (r *Request) Params() translate.Params {
	tools := r.Tools
	if len(tools) == 0 {
		for i := range r.Functions {
			tools = append(tools, translate.Tool{Type: "function", Function: &r.Functions[i]})
		}
	}

	maxTokens := r.MaxTokens
	if maxTokens == nil {
		maxTokens = r.MaxCompletionTokens
	}

	mode := r.ToolChoice
	if mode == nil {
		mode = r.FunctionCall
	}

	return translate.Params{
		Model:          r.Model,
		Temperature:    r.Temperature,
		TopP:           r.TopP,
		MaxTokens:      maxTokens,
		Stop:           r.Stop,
		Tools:          tools,
		FunctionCall:   mode,
		ResponseFormat: r.ResponseFormat,
		Stream:         r.Stream,
	}
}

// Completion is both the chat.completion and chat.completion.chunk wire
// object; chunks carry deltas instead of messages inside choices.
type Completion struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

type Choice struct {
	Index        int            `json:"index"`
	Message      *OutputMessage `json:"message,omitempty"`
	Delta        *OutputMessage `json:"delta,omitempty"`
	Logprobs     any            `json:"logprobs"`
	FinishReason *string        `json:"finish_reason"`
}

// OutputMessage is an assistant message or stream delta. Content is a
// pointer so tool-call messages serialize it as null rather than empty.
type OutputMessage struct {
	Role             string        `json:"role,omitempty"`
	Content          *string       `json:"content"`
	Refusal          any           `json:"refusal"`
	ReasoningContent string        `json:"reasoning_content,omitempty"`
	FunctionCall     *FunctionCall `json:"function_call,omitempty"`
	ToolCalls        []ToolCall    `json:"tool_calls,omitempty"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type Usage struct {
	PromptTokens            int                     `json:"prompt_tokens"`
	CompletionTokens        int                     `json:"completion_tokens"`
	TotalTokens             int                     `json:"total_tokens"`
	PromptTokensDetails     PromptTokensDetails     `json:"prompt_tokens_details"`
	CompletionTokensDetails CompletionTokensDetails `json:"completion_tokens_details"`
}

type PromptTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

type CompletionTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}
