package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hoangminh/herald/internal/models"
	"github.com/hoangminh/herald/internal/prefs"
)

// GetPreferences handles GET /api/preferences. It returns the current
// user's preference mapping as a JSON object.
func GetPreferences(store *prefs.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preferences, err := store.Read(r.Context())
		if err != nil {
			slog.Error("failed to read preferences", "error", err)
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, preferences)
	}
}

// UpdatePreferences handles PUT /api/preferences. The JSON body is treated
// as a merge partial: its keys overwrite same-named keys in the stored
// mapping and every other key is preserved. Returns the merged mapping.
func UpdatePreferences(store *prefs.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var partial models.Preferences
		if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		merged, err := store.Update(r.Context(), partial)
		if err != nil {
			slog.Error("failed to update preferences", "error", err)
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, merged)
	}
}
