package llm

import (
	"context"

	"zeto/internal/domain/models"
)

// CompletionRequest is the provider-agnostic request handed to a completion
// provider: the assembled prompt plus the model to run it on.
type CompletionRequest struct {
	Prompt *models.PromptContext
	Model  string
}

// StreamEvent is one item of a streaming completion. Exactly one of the
// fields is meaningful: a text delta, a terminal error, or the done marker.
// A stream yields zero or more deltas and then at most one terminal event
// (Done or Err); nothing follows a terminal event. A stream cancelled via
// ctx may close without a terminal event.
type StreamEvent struct {
	Delta string
	Done  bool
	Err   error
}

// Emit delivers one stream event unless ctx is cancelled, reporting whether
// the event went out. A cancelled consumer stops draining the channel, so a
// bare send would park the producer goroutine forever once the buffer fills;
// producers return on a false result and let the closed channel stand as the
// terminal signal.
func Emit(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- ev:
		return true
	}
}

// Provider is a hosted completion API. Implementations map upstream failures
// onto the domain taxonomy: HTTP 401 becomes *domain.AuthError, any other
// non-2xx becomes *domain.UpstreamError, and a connection dropped mid-stream
// surfaces domain.ErrStreamInterrupted on the stream.
type Provider interface {
	// Name returns the provider name ("openai", "anthropic", "lorem").
	Name() string

	// SupportsModel reports whether this provider serves the given model.
	SupportsModel(model string) bool

	// Complete runs the prompt single-shot and returns the full text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// CompleteStream runs the prompt in streaming mode. The returned channel
	// is closed after the terminal event. Deltas arrive in upstream order;
	// their concatenation equals what Complete would have returned for the
	// same upstream response. Cancelling ctx tears down the upstream call
	// and closes the channel, possibly without a terminal event.
	CompleteStream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error)
}
