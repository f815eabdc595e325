package handlers

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/hoangminh/herald/internal/changelog"
	"github.com/hoangminh/herald/internal/models"
	"github.com/hoangminh/herald/internal/whatsnew"
)

// whatsNewResponse is the JSON shape returned by GET /api/whats-new.
type whatsNewResponse struct {
	HasNew         bool              `json:"has_new"`
	HasNewFeatured bool              `json:"has_new_featured"`
	Entries        []models.Entry    `json:"entries"`
	ChangelogURL   string            `json:"changelog_url,omitempty"`
	Settings       whatsnew.Settings `json:"settings"`
}

// GetWhatsNew handles GET /api/whats-new. The changelog fetch and the
// settings resolution are independent, so they run concurrently; the
// notification flags are derived once both complete.
func GetWhatsNew(notifier *whatsnew.Service, feed *changelog.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			changes  *models.Changelog
			settings whatsnew.Settings
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			changes, err = feed.Fetch(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			settings, err = notifier.Settings(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			slog.Error("failed to resolve whats-new state", "error", err)
			writeDomainError(w, err)
			return
		}

		hasNew := whatsnew.HasNew(changes.Entries, settings.LastSeenDate)
		writeJSON(w, http.StatusOK, whatsNewResponse{
			HasNew:         hasNew,
			HasNewFeatured: whatsnew.HasNewFeatured(hasNew, changes.Entries),
			Entries:        changes.Entries,
			ChangelogURL:   changes.ChangelogURL,
			Settings:       settings,
		})
	}
}

// MarkWhatsNewSeen handles POST /api/whats-new/seen. It fetches the current
// entries and records the newest one's publication time as seen. An empty
// changelog is acknowledged with no write.
func MarkWhatsNewSeen(notifier *whatsnew.Service, feed *changelog.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		changes, err := feed.Fetch(ctx)
		if err != nil {
			slog.Error("failed to fetch changelog", "error", err)
			writeDomainError(w, err)
			return
		}

		if err := notifier.MarkAsSeen(ctx, changes.Entries); err != nil {
			slog.Error("failed to mark changelog as seen", "error", err)
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
