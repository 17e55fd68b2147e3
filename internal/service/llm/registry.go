package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"zeto/internal/domain"
	llmSvc "zeto/internal/domain/services/llm"
)

// Registry routes model names to registered completion providers.
type Registry struct {
	providers []llmSvc.Provider
	logger    *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p llmSvc.Provider) {
	r.providers = append(r.providers, p)
	r.logger.Info("completion provider registered", "provider", p.Name())
}

// ForModel returns the provider serving the given model.
//
// A model whose provider is known but unregistered (its credential is not
// configured) is a ConfigError, detected here so requests fail fast before
// any upstream work. A model no provider recognizes is a caller error.
func (r *Registry) ForModel(model string) (llmSvc.Provider, error) {
	for _, p := range r.providers {
		if p.SupportsModel(model) {
			return p, nil
		}
	}

	if name := providerNameForModel(model); name != "" {
		return nil, &domain.ConfigError{
			Message: fmt.Sprintf("no API key configured for provider %q (model %q)", name, model),
		}
	}

	return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown model %q", model)}
}

// providerNameForModel maps model-name prefixes to provider names,
// independent of which providers are registered.
func providerNameForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"):
		return "openai"
	case strings.HasPrefix(model, "claude-"):
		return "anthropic"
	case strings.HasPrefix(model, "lorem-"):
		return "lorem"
	}
	return ""
}
