package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangminh/herald/internal/api/handlers"
	"github.com/hoangminh/herald/internal/changelog"
	"github.com/hoangminh/herald/internal/config"
	"github.com/hoangminh/herald/internal/metrics"
	"github.com/hoangminh/herald/internal/prefs"
	"github.com/hoangminh/herald/internal/whatsnew"
)

// NewRouter creates and configures the HTTP router with all API routes and
// the Prometheus scrape endpoint.
func NewRouter(
	store *prefs.Store,
	notifier *whatsnew.Service,
	feed *changelog.Client,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	r.Use(NewRateLimiter(cfg.Server.RateLimitPerMinute).Middleware)

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.Get("/whats-new", handlers.GetWhatsNew(notifier, feed))
		api.Post("/whats-new/seen", handlers.MarkWhatsNewSeen(notifier, feed))

		api.Get("/preferences", handlers.GetPreferences(store))
		api.Put("/preferences", handlers.UpdatePreferences(store))

		api.Get("/changelog", handlers.GetChangelog(feed))
	})

	r.Handle("/metrics", metrics.Handler(gatherer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
