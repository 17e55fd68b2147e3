package lorem

import (
	"context"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	llmSvc "zeto/internal/domain/services/llm"
)

// Provider is a mock completion provider that generates lorem ipsum text.
// Used for development and tests without requiring real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Complete generates a few sentences of lorem ipsum.
func (p *Provider) Complete(ctx context.Context, req *llmSvc.CompletionRequest) (string, error) {
	return p.generator.Paragraph(2, 4), nil
}

// CompleteStream streams lorem ipsum word by word, with a per-word delay
// based on the model name so slow upstreams can be simulated locally.
func (p *Provider) CompleteStream(ctx context.Context, req *llmSvc.CompletionRequest) (<-chan llmSvc.StreamEvent, error) {
	text := p.generator.Paragraph(2, 4)
	delay := streamDelay(req.Model)

	eventChan := make(chan llmSvc.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		words := strings.Fields(text)
		for i, word := range words {
			delta := word
			if i < len(words)-1 {
				delta += " "
			}

			select {
			case <-ctx.Done():
				// Cancelled consumers no longer drain the channel; return
				// without a terminal event rather than blocking on one.
				return
			case <-time.After(delay):
			}

			if !llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Delta: delta}) {
				return
			}
		}

		llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Done: true})
	}()

	return eventChan, nil
}

// streamDelay returns the per-word delay based on the model name.
func streamDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "slow"):
		return 500 * time.Millisecond
	case strings.Contains(model, "fast"):
		return 33 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}
