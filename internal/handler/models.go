package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"zeto/internal/capabilities"
	"zeto/internal/httputil"
)

// ModelsHandler exposes the model catalog.
type ModelsHandler struct {
	registry *capabilities.Registry
	logger   *slog.Logger
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(registry *capabilities.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{registry: registry, logger: logger}
}

// List handles GET /api/models, grouping models by provider.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.Providers()
	sort.Strings(providers)

	catalog := make(map[string][]capabilities.ModelInfo, len(providers))
	for _, provider := range providers {
		models, err := h.registry.ListModels(provider)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		catalog[provider] = models
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"providers": catalog})
}
