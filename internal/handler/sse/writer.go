package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventWriter writes SSE frames to an HTTP response. Every frame is flushed
// immediately; SSE is useless if deltas sit in a buffer.
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEventWriter prepares w for an SSE response and returns a writer over it.
// Returns an error if the underlying connection cannot be flushed.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{w: w, flusher: flusher}, nil
}

// WriteEvent marshals payload and writes it as a single `data:` frame.
func (e *EventWriter) WriteEvent(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	e.flusher.Flush()
	return nil
}

// WritePing writes a comment frame. Clients ignore comment lines, so a ping
// keeps the connection warm without touching the event stream.
func (e *EventWriter) WritePing() error {
	if _, err := fmt.Fprint(e.w, ": ping\n\n"); err != nil {
		return fmt.Errorf("write sse ping: %w", err)
	}
	e.flusher.Flush()

	// A zero-byte write surfaces a closed connection that the flush missed.
	if _, err := e.w.Write(nil); err != nil {
		return fmt.Errorf("connection closed: %w", err)
	}
	return nil
}
