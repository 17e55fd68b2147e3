package capabilities

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the model catalog for every configured provider. Loaded
// once from embedded YAML at startup.
type Registry struct {
	providers map[string]*ProviderModels
	mu        sync.RWMutex
}

// NewRegistry loads the embedded catalog files.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderModels),
	}

	for _, provider := range []string{"openai", "anthropic"} {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s catalog: %w", provider, err)
		}
	}

	return r, nil
}

func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var models ProviderModels
	if err := yaml.Unmarshal(data, &models); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	r.providers[provider] = &models
	r.mu.Unlock()

	return nil
}

// Lookup finds the catalog entry for a model, searching every provider.
// The second result is false for models outside the catalog (mock models,
// or anything newer than the embedded files); callers treat those as
// fully capable.
func (r *Registry) Lookup(model string) (*ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, pm := range r.providers {
		for i := range pm.Models {
			if pm.Models[i].ID == model {
				return &pm.Models[i], true
			}
		}
	}

	return nil, false
}

// ListModels returns a provider's models in catalog order.
func (r *Registry) ListModels(provider string) ([]ModelInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pm, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return pm.Models, nil
}

// Providers returns the names of all providers in the catalog.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
