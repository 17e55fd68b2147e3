package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"zeto/internal/domain"
	llmSvc "zeto/internal/domain/services/llm"
)

const defaultMaxTokens = 4096

// Provider implements the completion Provider interface for Anthropic
// (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider serves the given model.
// Anthropic models start with "claude-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Complete runs the prompt single-shot and returns the full response text.
func (p *Provider) Complete(ctx context.Context, req *llmSvc.CompletionRequest) (string, error) {
	message, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return "", p.mapError(err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	return b.String(), nil
}

// CompleteStream runs the prompt in streaming mode.
func (p *Provider) CompleteStream(ctx context.Context, req *llmSvc.CompletionRequest) (<-chan llmSvc.StreamEvent, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))

	eventChan := make(chan llmSvc.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		for stream.Next() {
			event := stream.Current()

			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok || deltaEvent.Delta.Type != "text_delta" {
				continue
			}

			if !llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Delta: deltaEvent.Delta.Text}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			// Cancellation already tore the stream down; the consumer is
			// gone, so no terminal event must be forced onto the channel.
			if ctx.Err() != nil {
				return
			}
			llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Err: fmt.Errorf("%w: %v", domain.ErrStreamInterrupted, err)})
			return
		}

		llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Done: true})
	}()

	return eventChan, nil
}

func (p *Provider) buildParams(req *llmSvc.CompletionRequest) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: req.Prompt.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt.UserMessage())),
		},
	}
}

// mapError translates SDK errors onto the domain taxonomy.
func (p *Provider) mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized {
			return &domain.AuthError{Provider: "anthropic"}
		}
		return &domain.UpstreamError{Provider: "anthropic", Status: apiErr.StatusCode, Body: apiErr.Error()}
	}

	return fmt.Errorf("anthropic API call failed: %w", err)
}
