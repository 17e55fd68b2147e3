package llm

import (
	"fmt"
	"log/slog"

	"zeto/internal/config"
	"zeto/internal/service/llm/providers/anthropic"
	"zeto/internal/service/llm/providers/lorem"
	"zeto/internal/service/llm/providers/openai"
)

// SetupProviders builds the provider registry from configuration. Providers
// whose credentials are absent are simply not registered; the registry
// reports that as a ConfigError at request time.
func SetupProviders(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry(logger)

	if cfg.OpenAIAPIKey != "" {
		provider, err := openai.NewProvider(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("setup openai provider: %w", err)
		}
		registry.Register(provider)
	}

	if cfg.AnthropicAPIKey != "" {
		provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("setup anthropic provider: %w", err)
		}
		registry.Register(provider)
	}

	// The lorem provider needs no credential; keep it out of prod
	if cfg.Environment != "prod" {
		registry.Register(lorem.NewProvider())
	}

	if len(registry.providers) == 0 {
		logger.Warn("no completion providers registered, chat requests will fail with a config error")
	}

	return registry, nil
}
