package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/workflow"
)

// SSE event names sent on /runs/stream
const (
	sseStep     = "step"
	sseTick     = "tick"
	sseComplete = "complete"
	sseError    = "error"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteWorkflowEvent sends a workflow event under its SSE name.
// A failed run completes with an error event.
func (s *SSEWriter) WriteWorkflowEvent(e workflow.Event) error {
	return s.WriteEvent(sseEventName(e), e)
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent(sseError, map[string]string{"error": message}) //nolint:errcheck
}

func sseEventName(e workflow.Event) string {
	switch e.Type {
	case workflow.EventTick:
		return sseTick
	case workflow.EventComplete:
		if e.Outcome == workflow.OutcomeFailed {
			return sseError
		}
		return sseComplete
	default:
		return sseStep
	}
}
