package responses

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/chatbridge-dev/chatbridge/pkg/backend"
)

type fakeSource struct {
	chunks []*backend.ChatChunk
	err    error
}

func (f *fakeSource) Recv() (*backend.ChatChunk, error) {
	if len(f.chunks) == 0 {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}
	chunk := f.chunks[0]
	f.chunks = f.chunks[1:]
	return chunk, nil
}

type recordedEvent struct {
	name string
	data any
}

type fakeEventSink struct {
	events []recordedEvent
}

func (f *fakeEventSink) Event(name string, v any) error {
	f.events = append(f.events, recordedEvent{name, v})
	return nil
}

func (f *fakeEventSink) names() []string {
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.name
	}
	return out
}

func contentChunk(s string) *backend.ChatChunk {
	return &backend.ChatChunk{
		Choices: []backend.ChunkChoice{{Delta: backend.ChunkDelta{Content: &s}}},
	}
}

func functionChunk(name string, args any) *backend.ChatChunk {
	return &backend.ChatChunk{
		Choices: []backend.ChunkChoice{{
			Delta: backend.ChunkDelta{
				FunctionCall: &backend.ChunkFunctionCall{Name: name, Arguments: args},
			},
		}},
	}
}

func TestStreamResponseTextLifecycle(t *testing.T) {
	source := &fakeSource{chunks: []*backend.ChatChunk{contentChunk("Hel"), contentChunk("lo")}}
	sink := &fakeEventSink{}

	err := StreamResponse(context.Background(), source, &Request{Model: "gpt-4o"}, "gpt-4o", "r1", sink)
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}

	want := []string{
		"response.created",
		"response.in_progress",
		"response.output_item.added",
		"response.content_part.added",
		"response.output_text.delta",
		"response.output_text.delta",
		"response.output_text.done",
		"response.content_part.done",
		"response.output_item.done",
		"response.completed",
	}
	got := sink.names()
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for i, e := range sink.events {
		if seq := sequenceOf(t, e.data); seq != i {
			t.Errorf("event %q sequence = %d, want %d", e.name, seq, i)
		}
	}

	done := sink.events[6].data.(TextDoneEvent)
	if done.Text != "Hello" {
		t.Errorf("accumulated text = %q", done.Text)
	}

	completed := sink.events[9].data.(ResponseEvent)
	if completed.Response.Status != "completed" {
		t.Errorf("final status = %q", completed.Response.Status)
	}
	if len(completed.Response.Output) != 1 || completed.Response.Output[0].Content[0].Text != "Hello" {
		t.Errorf("final output = %+v", completed.Response.Output)
	}
}

func TestStreamResponseFunctionCallLifecycle(t *testing.T) {
	source := &fakeSource{chunks: []*backend.ChatChunk{
		functionChunk("__chatbridge_user_web_search", map[string]any{"query": "go"}),
	}}
	sink := &fakeEventSink{}

	err := StreamResponse(context.Background(), source, &Request{Model: "gpt-4o"}, "gpt-4o", "r1", sink)
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}

	want := []string{
		"response.created",
		"response.in_progress",
		"response.output_item.added",
		"response.function_call_arguments.delta",
		"response.function_call_arguments.done",
		"response.output_item.done",
		"response.completed",
	}
	got := sink.names()
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	added := sink.events[2].data.(OutputItemEvent)
	if added.Item.Name != "web_search" {
		t.Errorf("name = %q, alias must be reversed", added.Item.Name)
	}

	done := sink.events[4].data.(ArgumentsDoneEvent)
	if done.Arguments != `{"query":"go"}` {
		t.Errorf("arguments = %q", done.Arguments)
	}
}

func TestStreamResponseErrorEvent(t *testing.T) {
	source := &fakeSource{
		chunks: []*backend.ChatChunk{contentChunk("partial")},
		err:    backend.NewError(backend.KindInternal, "upstream hiccup"),
	}
	sink := &fakeEventSink{}

	if err := StreamResponse(context.Background(), source, &Request{Model: "gpt-4o"}, "gpt-4o", "r1", sink); err != nil {
		t.Fatalf("backend errors must be reported in-band: %v", err)
	}

	last := sink.events[len(sink.events)-1]
	if last.name != "error" {
		t.Fatalf("last event = %q", last.name)
	}
	ev := last.data.(ErrorEvent)
	if ev.Code != "stream_error" || ev.Message != "upstream hiccup" {
		t.Errorf("error event = %+v", ev)
	}
}

func TestStreamResponseCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := &fakeSource{err: context.Canceled}
	sink := &fakeEventSink{}

	err := StreamResponse(ctx, source, &Request{Model: "gpt-4o"}, "gpt-4o", "r1", sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	for _, e := range sink.events {
		if e.name == "error" || e.name == "response.completed" {
			t.Errorf("unexpected terminal event %q after cancellation", e.name)
		}
	}
}

func sequenceOf(t *testing.T, data any) int {
	t.Helper()
	switch e := data.(type) {
	case ResponseEvent:
		return e.SequenceNumber
	case OutputItemEvent:
		return e.SequenceNumber
	case ContentPartEvent:
		return e.SequenceNumber
	case TextDeltaEvent:
		return e.SequenceNumber
	case TextDoneEvent:
		return e.SequenceNumber
	case ArgumentsDeltaEvent:
		return e.SequenceNumber
	case ArgumentsDoneEvent:
		return e.SequenceNumber
	case ErrorEvent:
		return e.SequenceNumber
	default:
		t.Fatalf("unknown event payload %T", data)
		return -1
	}
}
