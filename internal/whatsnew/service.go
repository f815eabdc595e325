// Package whatsnew decides whether the changelog has entries the user has
// not seen yet. The last-seen timestamp lives in the whatsNew namespace of
// the user's preference blob, so all state flows through the preference
// store; this package holds no state of its own.
package whatsnew

import (
	"context"
	"fmt"
	"time"

	"github.com/hoangminh/herald/internal/models"
	"github.com/hoangminh/herald/internal/prefs"
)

const (
	// preferenceKey is the reserved namespace inside the preference blob.
	preferenceKey = "whatsNew"
	lastSeenKey   = "lastSeenDate"
)

// Settings holds the whatsNew namespace of the preference mapping.
type Settings struct {
	LastSeenDate time.Time `json:"lastSeenDate"`
}

// Service derives notification state from changelog entries and the
// preference store.
type Service struct {
	prefs *prefs.Store
	now   func() time.Time
}

// NewService creates a Service backed by the given preference store.
func NewService(store *prefs.Store) *Service {
	return &Service{prefs: store, now: time.Now}
}

// ParseSettings extracts whatsNew settings from a preference mapping. ok is
// false when the namespace is absent or its lastSeenDate is not a
// parseable timestamp.
func ParseSettings(preferences models.Preferences) (Settings, bool) {
	namespace, ok := preferences[preferenceKey].(map[string]any)
	if !ok {
		return Settings{}, false
	}
	raw, ok := namespace[lastSeenKey].(string)
	if !ok {
		return Settings{}, false
	}
	lastSeen, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Settings{}, false
	}
	return Settings{LastSeenDate: lastSeen}, true
}

// Settings returns the user's whatsNew settings, initializing them to the
// current instant the first time preferences resolve without a stored
// value. The initialization write is self-healing: once it propagates,
// ParseSettings succeeds and the write never repeats.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	preferences, err := s.prefs.Read(ctx)
	if err != nil {
		return Settings{}, err
	}

	if settings, ok := ParseSettings(preferences); ok {
		return settings, nil
	}

	settings := Settings{LastSeenDate: s.now().UTC()}
	if _, err := s.prefs.Update(ctx, partialFor(settings)); err != nil {
		return Settings{}, fmt.Errorf("initializing whats-new settings: %w", err)
	}
	return settings, nil
}

// partialFor builds the merge partial that stores settings under the
// whatsNew namespace. RFC3339Nano keeps sub-second precision so that a
// stored entry timestamp compares equal to the entry it came from.
func partialFor(settings Settings) models.Preferences {
	return models.Preferences{
		preferenceKey: map[string]any{
			lastSeenKey: settings.LastSeenDate.Format(time.RFC3339Nano),
		},
	}
}

// HasNew reports whether the newest entry was published strictly after
// lastSeen. Publication at exactly lastSeen does not count as new.
func HasNew(entries []models.Entry, lastSeen time.Time) bool {
	if len(entries) == 0 {
		return false
	}
	return entries[0].PublishedAt.After(lastSeen)
}

// HasNewFeatured reports whether the unseen newest entry is featured. It is
// always false when hasNew is false.
func HasNewFeatured(hasNew bool, entries []models.Entry) bool {
	if !hasNew || len(entries) == 0 {
		return false
	}
	return entries[0].Featured
}

// MarkAsSeen records the newest entry's own publication time as the
// last-seen instant. With the strict-after comparison in HasNew, the same
// entry list derives hasNew == false once the write propagates. Calling it
// with no entries is a no-op.
func (s *Service) MarkAsSeen(ctx context.Context, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	settings := Settings{LastSeenDate: entries[0].PublishedAt}
	if _, err := s.prefs.Update(ctx, partialFor(settings)); err != nil {
		return fmt.Errorf("marking changelog as seen: %w", err)
	}
	return nil
}

// Status bundles the derived notification state for a list of entries.
type Status struct {
	HasNew         bool     `json:"has_new"`
	HasNewFeatured bool     `json:"has_new_featured"`
	Settings       Settings `json:"settings"`
}

// Status resolves settings (initializing them if needed) and derives both
// notification flags for the given entries.
func (s *Service) Status(ctx context.Context, entries []models.Entry) (Status, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return Status{}, err
	}

	hasNew := HasNew(entries, settings.LastSeenDate)
	return Status{
		HasNew:         hasNew,
		HasNewFeatured: HasNewFeatured(hasNew, entries),
		Settings:       settings,
	}, nil
}
