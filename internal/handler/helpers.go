package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"zeto/internal/domain"
	"zeto/internal/httputil"
)

// handleError translates a domain error into the JSON error envelope. Errors
// that carry structured detail (unusable document lists) attach it; anything
// unrecognized becomes a 500 without leaking internals.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var noCtx *domain.NoUsableContextError
	if errors.As(err, &noCtx) {
		httputil.RespondErrorWithDetails(w, noCtx.StatusCode(), noCtx.Error(), noCtx.Missing)
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		status := httpErr.StatusCode()
		if status >= 500 {
			logger.Error("request failed", "status", status, "error", err)
		}
		httputil.RespondError(w, status, httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryInt reads an integer query parameter, falling back to def when absent
// or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
