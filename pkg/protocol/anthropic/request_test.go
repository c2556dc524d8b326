package anthropic

import (
	"encoding/json"
	"testing"
)

func blockText(s string) BlockList {
	return BlockList{Text: s}
}

func blockItems(blocks ...Block) BlockList {
	return BlockList{Blocks: blocks, isBlocks: true}
}

func TestMessagesPlainText(t *testing.T) {
	req := &MessagesRequest{
		System: SystemField{Text: "be terse"},
		InboundMessages: []InboundMessage{
			{Role: "user", Content: blockText("hello")},
			{Role: "assistant", Content: blockText("hi")},
		},
	}

	msgs := req.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content.Text != "be terse" {
		t.Errorf("system = %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content.Text != "hello" {
		t.Errorf("user = %+v", msgs[1])
	}
	if msgs[2].Role != "assistant" || msgs[2].Content.Text != "hi" {
		t.Errorf("assistant = %+v", msgs[2])
	}
}

func TestMessagesSystemBlocks(t *testing.T) {
	req := &MessagesRequest{
		System: SystemField{Blocks: []Block{
			{Type: "text", Text: "rule one"},
			{Type: "text", Text: "rule two"},
		}},
		InboundMessages: []InboundMessage{{Role: "user", Content: blockText("q")}},
	}

	msgs := req.Messages()
	if msgs[0].Content.Text != "rule one\nrule two" {
		t.Errorf("system prompt = %q", msgs[0].Content.Text)
	}
}

func TestMessagesToolUseAndResult(t *testing.T) {
	req := &MessagesRequest{
		InboundMessages: []InboundMessage{
			{Role: "user", Content: blockText("weather in SF?")},
			{Role: "assistant", Content: blockItems(
				Block{Type: "text", Text: "checking"},
				Block{Type: "tool_use", ID: "toolu_1", Name: "get_weather",
					Input: json.RawMessage(`{"city":"SF"}`)},
			)},
			{Role: "user", Content: blockItems(
				Block{Type: "tool_result", ToolUseID: "toolu_1",
					Content: blockText("sunny")},
				Block{Type: "text", Text: "thanks"},
			)},
		},
	}

	msgs := req.Messages()
	if len(msgs) != 4 {
		t.Fatalf("messages = %+v", msgs)
	}

	assistant := msgs[1]
	if assistant.Content.Text != "checking" {
		t.Errorf("assistant text = %q", assistant.Content.Text)
	}
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", assistant.ToolCalls)
	}
	call := assistant.ToolCalls[0]
	if call.ID != "toolu_1" || call.Function.Name != "get_weather" || call.Function.Arguments != `{"city":"SF"}` {
		t.Errorf("tool call = %+v", call)
	}

	// The tool result precedes the trailing user text and inherits the
	// function name from the tool_use it answers.
	result := msgs[2]
	if result.Role != "tool" || result.ToolCallID != "toolu_1" || result.Name != "get_weather" {
		t.Errorf("tool result = %+v", result)
	}
	if result.Content.Text != "sunny" {
		t.Errorf("tool result content = %q", result.Content.Text)
	}
	if msgs[3].Role != "user" || msgs[3].Content.Text != "thanks" {
		t.Errorf("trailing user = %+v", msgs[3])
	}
}

func TestMessagesToolUseEmptyInput(t *testing.T) {
	req := &MessagesRequest{
		InboundMessages: []InboundMessage{
			{Role: "assistant", Content: blockItems(
				Block{Type: "tool_use", ID: "toolu_9", Name: "ping"},
			)},
		},
	}

	msgs := req.Messages()
	if args := msgs[0].ToolCalls[0].Function.Arguments; args != "{}" {
		t.Errorf("arguments = %q", args)
	}
}

func TestMessagesImageBlocks(t *testing.T) {
	req := &MessagesRequest{
		InboundMessages: []InboundMessage{
			{Role: "user", Content: blockItems(
				Block{Type: "text", Text: "what is this"},
				Block{Type: "image", Source: &ImageSource{
					Type: "base64", MediaType: "image/jpeg", Data: "aGVsbG8=",
				}},
				Block{Type: "image", Source: &ImageSource{
					Type: "url", URL: "https://example.com/cat.png",
				}},
			)},
		},
	}

	msgs := req.Messages()
	if len(msgs) != 1 || !msgs[0].Content.IsParts() {
		t.Fatalf("messages = %+v", msgs)
	}
	parts := msgs[0].Content.Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %+v", parts)
	}
	if parts[0].Type != "text" || parts[0].Text != "what is this" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].ImageURL.URL != "data:image/jpeg;base64,aGVsbG8=" {
		t.Errorf("base64 image url = %q", parts[1].ImageURL.URL)
	}
	if parts[2].ImageURL.URL != "https://example.com/cat.png" {
		t.Errorf("url image url = %q", parts[2].ImageURL.URL)
	}
}

func TestParamsTools(t *testing.T) {
	req := &MessagesRequest{
		Tools: []Tool{
			{Name: "get_weather", Description: "Look up weather",
				InputSchema: map[string]any{"type": "object", "properties": map[string]any{"city": map[string]any{"type": "string"}}}},
			{Name: "ping"},
		},
	}

	params := req.Params()
	if len(params.Tools) != 2 {
		t.Fatalf("tools = %+v", params.Tools)
	}
	if params.Tools[0].Function.Name != "get_weather" {
		t.Errorf("tool name = %q", params.Tools[0].Function.Name)
	}
	// Schemaless tools get an empty object schema so they survive the
	// parameterless-function filter downstream.
	schema := params.Tools[1].Function.Parameters
	if schema["type"] != "object" {
		t.Errorf("default schema = %+v", schema)
	}
}

func TestParamsToolChoice(t *testing.T) {
	pinned := &MessagesRequest{
		Tools:      []Tool{{Name: "get_weather"}},
		ToolChoice: &ToolChoice{Type: "tool", Name: "get_weather"},
	}
	params := pinned.Params()
	mode, ok := params.FunctionCall.(map[string]any)
	if !ok || mode["name"] != "get_weather" {
		t.Errorf("function call mode = %+v", params.FunctionCall)
	}

	none := &MessagesRequest{
		Tools:      []Tool{{Name: "get_weather"}},
		ToolChoice: &ToolChoice{Type: "none"},
	}
	if got := none.Params(); got.Tools != nil {
		t.Errorf("tools = %+v, want nil", got.Tools)
	}
}

func TestParamsStopSequences(t *testing.T) {
	req := &MessagesRequest{StopSequences: []string{"Human:", "###"}}
	stop, ok := req.Params().Stop.([]string)
	if !ok || len(stop) != 2 || stop[0] != "Human:" {
		t.Errorf("stop = %v", req.Params().Stop)
	}

	empty := &MessagesRequest{}
	if got := empty.Params(); got.Stop != nil {
		t.Errorf("stop = %v, want nil when absent", got.Stop)
	}
}

func TestParamsThinkingBudget(t *testing.T) {
	tests := []struct {
		name     string
		thinking *Thinking
		want     string
	}{
		{"disabled", nil, ""},
		{"explicit disabled", &Thinking{Type: "disabled", BudgetTokens: 9000}, ""},
		{"default budget", &Thinking{Type: "enabled"}, "high"},
		{"high", &Thinking{Type: "enabled", BudgetTokens: 8000}, "high"},
		{"medium", &Thinking{Type: "enabled", BudgetTokens: 3000}, "medium"},
		{"low", &Thinking{Type: "enabled", BudgetTokens: 1024}, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &MessagesRequest{Thinking: tt.thinking}
			if got := req.Params().ReasoningEffort; got != tt.want {
				t.Errorf("effort = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlockListUnmarshal(t *testing.T) {
	var msg InboundMessage
	if err := json.Unmarshal([]byte(`{"role":"user","content":"plain"}`), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Content.IsBlocks() || msg.Content.Text != "plain" {
		t.Errorf("string content = %+v", msg.Content)
	}

	if err := json.Unmarshal([]byte(`{"role":"user","content":[{"type":"text","text":"a"}]}`), &msg); err != nil {
		t.Fatal(err)
	}
	if !msg.Content.IsBlocks() || len(msg.Content.Blocks) != 1 {
		t.Errorf("block content = %+v", msg.Content)
	}
}
