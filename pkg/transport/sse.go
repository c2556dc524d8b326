package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chatbridge-dev/chatbridge/pkg/observability"
)

// writerState tracks the state of a streamWriter.
type writerState int

const (
	writerIdle      writerState = iota // no writes yet
	writerStreaming                    // headers sent, frames flowing
	writerClosed                       // finish called
)

// streamWriter renders SSE frames onto an http.ResponseWriter, flushing
// after every frame. It implements the sink interfaces of all three
// protocol sequencers: anonymous data frames with a [DONE] sentinel for
// chat completions, and named events for the Responses and Messages APIs.
//
// The active-stream gauge is incremented when the first frame goes out and
// decremented by finish; callers must defer finish.
type streamWriter struct {
	w     http.ResponseWriter
	rc    *http.ResponseController
	state writerState
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	return &streamWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *streamWriter) begin() error {
	if s.state != writerIdle {
		return nil
	}
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.state = writerStreaming
	observability.StreamingConnections.Inc()
	return nil
}

// Send writes one anonymous data frame.
func (s *streamWriter) Send(v any) error {
	if s.state == writerClosed {
		return errors.New("stream already closed")
	}
	if err := s.begin(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Done writes the [DONE] sentinel ending a chat-completions stream.
func (s *streamWriter) Done() error {
	if s.state == writerClosed {
		return errors.New("stream already closed")
	}
	if err := s.begin(); err != nil {
		return err
	}
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Event writes one named event frame.
func (s *streamWriter) Event(name string, v any) error {
	if s.state == writerClosed {
		return errors.New("stream already closed")
	}
	if err := s.begin(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", name, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// started reports whether any frame has been written. Once true, errors
// can no longer be reported as JSON status responses.
func (s *streamWriter) started() bool {
	return s.state != writerIdle
}

// finish releases the active-stream slot. Safe to call more than once.
func (s *streamWriter) finish() {
	if s.state == writerStreaming {
		observability.StreamingConnections.Dec()
	}
	s.state = writerClosed
}
