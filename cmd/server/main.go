package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangminh/herald/internal/api"
	"github.com/hoangminh/herald/internal/changelog"
	"github.com/hoangminh/herald/internal/config"
	"github.com/hoangminh/herald/internal/metrics"
	"github.com/hoangminh/herald/internal/prefs"
	"github.com/hoangminh/herald/internal/storage"
	"github.com/hoangminh/herald/internal/userapi"
	"github.com/hoangminh/herald/internal/whatsnew"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory (local user mode)")
	flag.Parse()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Resolve the user source: an embedded SQLite store in local mode, the
	// remote user API otherwise.
	var source prefs.UserSource
	switch cfg.Users.Mode {
	case "local":
		db, err := storage.OpenDatabase(filepath.Join(*dataDir, "herald.db"))
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := storage.RunMigrations(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		store := storage.NewStore(db)
		if err := store.SeedDefaultUser(context.Background()); err != nil {
			slog.Error("failed to seed default user", "error", err)
			os.Exit(1)
		}
		source = store

	case "remote":
		source = userapi.NewClient(cfg.Users.BaseURL, cfg.Users.APIKey, cfg.ChangelogTimeout())
		slog.Info("using remote user API", "base_url", cfg.Users.BaseURL)
	}

	preferences := prefs.NewStore(source, collector)
	notifier := whatsnew.NewService(preferences)
	feed := changelog.NewClient(cfg.Changelog.URL, cfg.ChangelogTimeout(), collector)

	router := api.NewRouter(preferences, notifier, feed, registry, cfg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("starting server", "addr", addr, "changelog_url", cfg.Changelog.URL)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
