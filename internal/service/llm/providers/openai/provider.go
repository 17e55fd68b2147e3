package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openaiapi "github.com/sashabaranov/go-openai"

	"zeto/internal/domain"
	llmSvc "zeto/internal/domain/services/llm"
)

// Provider implements the completion Provider interface for OpenAI models.
type Provider struct {
	client *openaiapi.Client
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}

	return &Provider{
		client: openaiapi.NewClient(apiKey),
	}, nil
}

// NewProviderWithConfig creates a provider against a custom endpoint. Used
// by tests to point the client at a local fixture server.
func NewProviderWithConfig(config openaiapi.ClientConfig) *Provider {
	return &Provider{
		client: openaiapi.NewClientWithConfig(config),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsModel returns true if this provider serves the given model.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3")
}

// Complete runs the prompt single-shot and returns the full response text.
func (p *Provider) Complete(ctx context.Context, req *llmSvc.CompletionRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toAPIMessages(req),
	})
	if err != nil {
		return "", p.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &domain.UpstreamError{Provider: "openai", Status: http.StatusOK, Body: "empty choices in response"}
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteStream runs the prompt in streaming mode. Deltas are forwarded in
// arrival order; the channel closes after the terminal event.
func (p *Provider) CompleteStream(ctx context.Context, req *llmSvc.CompletionRequest) (<-chan llmSvc.StreamEvent, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openaiapi.ChatCompletionRequest{
		Model:    req.Model,
		Stream:   true,
		Messages: toAPIMessages(req),
	})
	if err != nil {
		return nil, p.mapError(err)
	}

	eventChan := make(chan llmSvc.StreamEvent, 10)

	go func() {
		defer close(eventChan)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Done: true})
				return
			}
			if err != nil {
				// Cancellation is not a stream failure; the consumer is
				// gone and nothing must block waiting for it.
				if ctx.Err() != nil {
					return
				}
				llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Err: fmt.Errorf("%w: %v", domain.ErrStreamInterrupted, err)})
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			if !llmSvc.Emit(ctx, eventChan, llmSvc.StreamEvent{Delta: delta}) {
				return
			}
		}
	}()

	return eventChan, nil
}

// mapError translates go-openai errors onto the domain taxonomy. 401 means
// the configured credential is bad - a configuration problem, not a
// transient upstream issue - and is surfaced distinctly.
func (p *Provider) mapError(err error) error {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return &domain.AuthError{Provider: "openai"}
		}
		return &domain.UpstreamError{Provider: "openai", Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized {
			return &domain.AuthError{Provider: "openai"}
		}
		return &domain.UpstreamError{Provider: "openai", Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	return fmt.Errorf("openai API call failed: %w", err)
}

func toAPIMessages(req *llmSvc.CompletionRequest) []openaiapi.ChatCompletionMessage {
	return []openaiapi.ChatCompletionMessage{
		{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: req.Prompt.System,
		},
		{
			Role:    openaiapi.ChatMessageRoleUser,
			Content: req.Prompt.UserMessage(),
		},
	}
}
