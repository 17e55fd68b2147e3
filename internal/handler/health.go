package handler

import (
	"net/http"

	"zeto/internal/httputil"
)

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
