package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"

	"zeto/internal/domain"
	"zeto/internal/domain/models"
	llmSvc "zeto/internal/domain/services/llm"
)

func newTestProvider(serverURL string) *Provider {
	cfg := openaiapi.DefaultConfig("test-key")
	cfg.BaseURL = serverURL + "/v1"
	return NewProviderWithConfig(cfg)
}

func testRequest() *llmSvc.CompletionRequest {
	return &llmSvc.CompletionRequest{
		Model: "gpt-4o-mini",
		Prompt: &models.PromptContext{
			System: "be helpful",
			Query:  "hello",
		},
	}
}

func TestSupportsModel(t *testing.T) {
	p := &Provider{}
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o-mini", true},
		{"gpt-4o", true},
		{"o1-preview", true},
		{"o3-mini", true},
		{"claude-sonnet-4-20250514", false},
		{"lorem-fast", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.SupportsModel(tt.model); got != tt.want {
			t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestCompleteSingleShot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}]
		}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	got, err := p.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "hi there" {
		t.Errorf("Complete() = %q, want %q", got, "hi there")
	}
}

func TestCompleteUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Complete(context.Background(), testRequest())

	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Complete() error = %v, want AuthError", err)
	}
	if authErr.Provider != "openai" {
		t.Errorf("AuthError.Provider = %q, want openai", authErr.Provider)
	}
	if authErr.StatusCode() != http.StatusUnauthorized {
		t.Errorf("StatusCode() = %d, want 401", authErr.StatusCode())
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Complete(context.Background(), testRequest())

	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Complete() error = %v, want UpstreamError", err)
	}
	if upErr.Status != http.StatusServiceUnavailable {
		t.Errorf("UpstreamError.Status = %d, want 503", upErr.Status)
	}
	if upErr.StatusCode() != http.StatusBadGateway {
		t.Errorf("StatusCode() = %d, want 502", upErr.StatusCode())
	}
}

func streamChunk(content string) string {
	return fmt.Sprintf(`data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q}}]}`+"\n\n", content)
}

func TestCompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, streamChunk("The "))
		fmt.Fprint(w, streamChunk("answer "))
		fmt.Fprint(w, streamChunk("is 42"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	events, err := p.CompleteStream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CompleteStream() error = %v", err)
	}

	var sb strings.Builder
	var done bool
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("stream event error = %v", ev.Err)
		}
		if ev.Done {
			done = true
			continue
		}
		if done {
			t.Fatal("event received after done")
		}
		sb.WriteString(ev.Delta)
	}

	if !done {
		t.Error("stream ended without done event")
	}
	if sb.String() != "The answer is 42" {
		t.Errorf("concatenated deltas = %q, want %q", sb.String(), "The answer is 42")
	}
}

func TestCompleteStreamCancelledWithoutConsumer(t *testing.T) {
	// Far more chunks than the event channel buffers, so the producer
	// goroutine is blocked on a send when cancellation hits.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 100; i++ {
			fmt.Fprint(w, streamChunk("word "))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := p.CompleteStream(ctx, testRequest())
	if err != nil {
		t.Fatalf("CompleteStream() error = %v", err)
	}

	// Nobody reads the channel before cancellation, mirroring a client that
	// disconnected mid-stream.
	time.Sleep(50 * time.Millisecond)
	cancel()

	// The producer must shut down on its own: the channel closes after at
	// most the buffered deltas, and no terminal event is forced at a
	// consumer that already left.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				t.Fatalf("terminal error event after cancellation: %v", ev.Err)
			}
			if ev.Done {
				t.Fatal("done event after cancellation")
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancellation")
		}
	}
}

func TestCompleteStreamUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.CompleteStream(context.Background(), testRequest())

	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("CompleteStream() error = %v, want AuthError", err)
	}
}
