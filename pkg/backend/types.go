package backend

// Wire types for the backend's native protocol. Conversations are flat
// message lists with string content; binary inputs ride along as uploaded
// file handles in attachments; tools are declared as functions and a tool
// invocation arrives as function_call on the assistant message.

// Message roles accepted by the backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Message is one turn in a backend conversation.
type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	Attachments  []string      `json:"attachments,omitempty"`

	// Name is only meaningful for role "function": the name of the
	// function whose result this message carries.
	Name string `json:"name,omitempty"`

	// ReasoningContent appears on replies when the backend ran with
	// reasoning enabled.
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// FunctionCall is a function invocation attached to an assistant message.
// Arguments holds a decoded JSON object when the backend (or the inbound
// request) supplied one, or a raw string when decoding failed.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// Function declares a callable function to the backend. Parameters is a
// JSON Schema object; the backend rejects $ref/$defs/anyOf/oneOf, so
// callers resolve schemas before building a Function.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ChatRequest is the backend chat call payload. FunctionCallMode is either
// the string "auto"/"none" or a {"name": ...} object forcing one function.
type ChatRequest struct {
	Model            string     `json:"model,omitempty"`
	Messages         []Message  `json:"messages"`
	Functions        []Function `json:"functions,omitempty"`
	FunctionCallMode any        `json:"function_call,omitempty"`
	Temperature      *float64   `json:"temperature,omitempty"`
	TopP             *float64   `json:"top_p,omitempty"`
	MaxTokens        *int       `json:"max_tokens,omitempty"`
	Stop             any        `json:"stop,omitempty"`
	ReasoningEffort  string     `json:"reasoning_effort,omitempty"`
	ResponseFormat   any        `json:"response_format,omitempty"`
	Stream           bool       `json:"stream,omitempty"`
}

// ChatResponse is a completed (non-streaming) backend reply.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Usage   *Usage   `json:"usage,omitempty"`
	Object  string   `json:"object,omitempty"`
}

// Choice is one candidate reply. The backend only ever returns one.
type Choice struct {
	Message      Message `json:"message"`
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
}

// Finish reasons the backend emits.
const (
	FinishStop         = "stop"
	FinishLength       = "length"
	FinishFunctionCall = "function_call"
	FinishBlacklist    = "blacklist"
	FinishError        = "error"
)

// Usage reports token accounting for one call. PrecachedPromptTokens counts
// prompt tokens served from the backend's prompt cache.
type Usage struct {
	PromptTokens          int `json:"prompt_tokens"`
	CompletionTokens      int `json:"completion_tokens"`
	TotalTokens           int `json:"total_tokens"`
	PrecachedPromptTokens int `json:"precached_prompt_tokens,omitempty"`
}

// ChatChunk is one streamed delta of a backend reply.
type ChatChunk struct {
	Choices []ChunkChoice `json:"choices"`
	Created int64         `json:"created"`
	Model   string        `json:"model,omitempty"`
	Usage   *Usage        `json:"usage,omitempty"`
	Object  string        `json:"object,omitempty"`
}

// ChunkChoice is the delta slot of a streamed chunk.
type ChunkChoice struct {
	Delta        ChunkDelta `json:"delta"`
	Index        int        `json:"index"`
	FinishReason *string    `json:"finish_reason,omitempty"`
}

// ChunkDelta carries the incremental payload of one chunk. ReasoningContent
// is the backend's chain-of-thought channel, delivered incrementally ahead
// of the answer text.
type ChunkDelta struct {
	Role             string             `json:"role,omitempty"`
	Content          *string            `json:"content,omitempty"`
	FunctionCall     *ChunkFunctionCall `json:"function_call,omitempty"`
	ReasoningContent *string            `json:"reasoning_content,omitempty"`
}

// ChunkFunctionCall is a function-call fragment inside a streamed delta.
// Arguments is either a string fragment or a complete JSON object depending
// on the backend's mood for the given chunk.
type ChunkFunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments any    `json:"arguments,omitempty"`
}

// FileUpload is the result of uploading attachment bytes to the backend.
type FileUpload struct {
	ID       string `json:"id"`
	Bytes    int64  `json:"bytes"`
	Filename string `json:"filename,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
	Created  int64  `json:"created_at,omitempty"`
}

// EmbeddingsRequest asks the backend to embed the given texts.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingsResponse carries one embedding vector per input row.
type EmbeddingsResponse struct {
	Object string      `json:"object"`
	Model  string      `json:"model"`
	Data   []Embedding `json:"data"`
}

// Embedding is one embedded input row.
type Embedding struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
	Usage     *Usage    `json:"usage,omitempty"`
}

// Model describes one model the backend serves.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// modelsResponse is the backend model-listing envelope.
type modelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// tokensCountRequest asks for token counts of the given texts.
type tokensCountRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// TokensCount reports the token and character count of one input text.
type TokensCount struct {
	Object     string `json:"object"`
	Tokens     int    `json:"tokens"`
	Characters int    `json:"characters"`
}

// errorResponse is the backend error envelope, parsed best-effort to pull a
// human-readable message out of failed calls.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}
