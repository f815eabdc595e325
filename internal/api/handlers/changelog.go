package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hoangminh/herald/internal/changelog"
)

// GetChangelog handles GET /api/changelog. It returns the normalized feed
// exactly as fetched, newest entry first.
func GetChangelog(feed *changelog.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changes, err := feed.Fetch(r.Context())
		if err != nil {
			slog.Error("failed to fetch changelog", "error", err)
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, changes)
	}
}
