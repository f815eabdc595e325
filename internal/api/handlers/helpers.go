package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hoangminh/herald/internal/changelog"
	"github.com/hoangminh/herald/internal/prefs"
)

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; log but cannot change the status.
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeDomainError maps domain errors to their HTTP responses: a missing
// user is 503 (the upstream user has not resolved yet), a failed changelog
// fetch is 502, and anything else is a plain 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prefs.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "User not loaded")
	case errors.Is(err, changelog.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "Failed to fetch changelog")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
