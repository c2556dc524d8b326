package backend

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func streamOf(ctx context.Context, lines ...string) *ChatStream {
	body := strings.Join(lines, "\n") + "\n"
	return newChatStream(ctx, io.NopCloser(strings.NewReader(body)))
}

func TestStreamRecvSequence(t *testing.T) {
	stream := streamOf(context.Background(),
		`data: {"choices":[{"delta":{"role":"assistant","content":"Hel"},"index":0}]}`,
		``,
		`: keepalive comment`,
		`data: {"choices":[{"delta":{"content":"lo"},"index":0}]}`,
		``,
		`data: {"choices":[{"delta":{},"index":0,"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`,
		``,
		`data: [DONE]`,
	)
	defer stream.Close()

	var contents []string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != nil {
			contents = append(contents, *chunk.Choices[0].Delta.Content)
		}
	}

	if got := strings.Join(contents, ""); got != "Hello" {
		t.Errorf("assembled content = %q, want Hello", got)
	}

	// Recv after EOF stays at EOF.
	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("Recv after done = %v, want io.EOF", err)
	}
}

func TestStreamSkipsMalformedChunk(t *testing.T) {
	stream := streamOf(context.Background(),
		`data: {not json`,
		`data: {"choices":[{"delta":{"content":"ok"},"index":0}]}`,
		`data: [DONE]`,
	)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if chunk.Choices[0].Delta.Content == nil || *chunk.Choices[0].Delta.Content != "ok" {
		t.Errorf("chunk = %+v, want the chunk after the malformed line", chunk)
	}
}

func TestStreamEOFWithoutSentinel(t *testing.T) {
	stream := streamOf(context.Background(),
		`data: {"choices":[{"delta":{"content":"x"},"index":0}]}`,
	)
	defer stream.Close()

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("Recv at clean close = %v, want io.EOF", err)
	}
}

func TestStreamContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream := streamOf(ctx,
		`data: {"choices":[{"delta":{"content":"x"},"index":0}]}`,
		`data: {"choices":[{"delta":{"content":"y"},"index":0}]}`,
	)
	defer stream.Close()

	cancel()

	_, err := stream.Recv()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Recv after cancel = %v, want context.Canceled", err)
	}
}

func TestStreamFunctionCallChunk(t *testing.T) {
	stream := streamOf(context.Background(),
		`data: {"choices":[{"delta":{"function_call":{"name":"search","arguments":{"q":"go"}}},"index":0}]}`,
		`data: [DONE]`,
	)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	fc := chunk.Choices[0].Delta.FunctionCall
	if fc == nil || fc.Name != "search" {
		t.Fatalf("function call = %+v", fc)
	}
	args, ok := fc.Arguments.(map[string]any)
	if !ok || args["q"] != "go" {
		t.Errorf("arguments = %#v, want decoded object", fc.Arguments)
	}
}
