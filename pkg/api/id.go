package api

import (
	"strings"

	"github.com/google/uuid"
)

// ID prefixes follow the conventions of the protocols the gateway speaks:
// chat completion ids look like "chatcmpl-<uuid>", Responses API objects use
// "resp_"/"msg_"/"fc_", tool calls use "call_", and Anthropic tool-use blocks
// use "toolu_" with 24 hex characters.

// NewCompletionID generates a chat completion identifier.
func NewCompletionID() string {
	return "chatcmpl-" + uuid.NewString()
}

// NewResponseID generates a Responses API response identifier.
func NewResponseID() string {
	return "resp_" + uuid.NewString()
}

// NewMessageID generates a message item identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// NewFunctionCallID generates a Responses API function-call item identifier.
func NewFunctionCallID() string {
	return "fc_" + uuid.NewString()
}

// NewCallID generates a tool call identifier.
func NewCallID() string {
	return "call_" + uuid.NewString()
}

// NewToolUseID generates an Anthropic tool_use block identifier:
// "toolu_" followed by 24 hex characters.
func NewToolUseID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "toolu_" + hex[:24]
}

// NewRequestID generates a request correlation identifier.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}
