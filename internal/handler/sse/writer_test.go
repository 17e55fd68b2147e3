package sse

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewEventWriterSetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	_, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-cache") {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rec.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q", got)
	}
}

func TestWriteEventFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	if err := w.WriteEvent(map[string]string{"delta": "hi"}); err != nil {
		t.Fatalf("WriteEvent() error = %v", err)
	}
	if err := w.WriteEvent(map[string]bool{"done": true}); err != nil {
		t.Fatalf("WriteEvent() error = %v", err)
	}

	want := "data: {\"delta\":\"hi\"}\n\ndata: {\"done\":true}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if !rec.Flushed {
		t.Error("response was not flushed")
	}
}

func TestWritePing(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	if err := w.WritePing(); err != nil {
		t.Fatalf("WritePing() error = %v", err)
	}
	if got := rec.Body.String(); got != ": ping\n\n" {
		t.Errorf("body = %q, want %q", got, ": ping\n\n")
	}
}

// countingPinger counts pings and fails after a threshold.
type countingPinger struct {
	mu       sync.Mutex
	count    int
	failAt   int
	failWith error
}

func (c *countingPinger) WritePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.failAt > 0 && c.count >= c.failAt {
		return c.failWith
	}
	return nil
}

func (c *countingPinger) pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func TestKeepAliveStop(t *testing.T) {
	pinger := &countingPinger{}
	k := NewKeepAlive(5 * time.Millisecond)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stopped := k.Start(pinger, logger)

	time.Sleep(30 * time.Millisecond)
	k.Stop()
	k.Stop() // second call must not panic

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop")
	}
	if pinger.pings() == 0 {
		t.Error("no pings were sent before stop")
	}
}

func TestKeepAliveStopsOnWriteFailure(t *testing.T) {
	pinger := &countingPinger{failAt: 2, failWith: io.ErrClosedPipe}
	k := NewKeepAlive(time.Millisecond)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stopped := k.Start(pinger, logger)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop after write failure")
	}
	if got := pinger.pings(); got != 2 {
		t.Errorf("pings = %d, want 2", got)
	}
}
