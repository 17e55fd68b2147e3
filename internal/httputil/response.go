package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes a JSON response with the given status code. It marshals
// first so an encoding failure cannot produce a partial body after headers
// are sent.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(payload)
}

// ErrorBody is the error envelope all non-2xx JSON responses share.
type ErrorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondError writes a JSON error body with the given status code
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondErrorWithDetails(w, status, message, nil)
}

// RespondErrorWithDetails writes a JSON error body carrying structured
// details, e.g. the list of unusable document ids on a context failure.
func RespondErrorWithDetails(w http.ResponseWriter, status int, message string, details interface{}) {
	payload, err := json.Marshal(ErrorBody{Error: message, Details: details})
	if err != nil {
		// Fallback to plain text if JSON encoding fails
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(payload)
}
