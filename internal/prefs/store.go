// Package prefs derives a structured preference mapping from the opaque
// blob stored on a user entity and writes merged updates back through the
// entity mutator.
//
// Preferences are not a first-class resource: the server treats the blob as
// an opaque string on the user, so reading means parsing the blob and
// writing means replacing it wholesale through a user update.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hoangminh/herald/internal/metrics"
	"github.com/hoangminh/herald/internal/models"
)

// ErrNotLoaded is returned when an operation requires a current user but
// none is available from the UserSource.
var ErrNotLoaded = errors.New("user not loaded")

// UserSource provides access to the user entity that carries the
// preference blob.
type UserSource interface {
	// CurrentUser returns the current user entity, or (nil, nil) when no
	// user has loaded yet.
	CurrentUser(ctx context.Context) (*models.User, error)

	// UpdateUser persists a full user representation and returns the
	// stored entity.
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
}

// cacheEntry pairs a parsed mapping with the exact blob it was parsed from.
type cacheEntry struct {
	blob  string
	prefs models.Preferences
}

// Store resolves preference mappings from the user's accessibility blob.
//
// Parsed mappings are cached per user, keyed by the blob value itself: a
// cache entry is reused only while the user's current blob is identical to
// the one it was parsed from. A successful Update writes a new blob through
// the user mutator, so stale entries simply stop matching and the next Read
// re-parses — there is no explicit invalidation.
//
// Read-merge-write in Update is not atomic across processes; concurrent
// writers for the same user resolve as last-writer-wins. Preferences are
// low-stakes per-user settings, so this is accepted.
type Store struct {
	source    UserSource
	collector *metrics.Collector

	mu    sync.Mutex
	cache map[string]cacheEntry // keyed by user ID
}

// NewStore creates a Store reading and writing through the given source.
func NewStore(source UserSource, collector *metrics.Collector) *Store {
	return &Store{
		source:    source,
		collector: collector,
		cache:     make(map[string]cacheEntry),
	}
}

// Read returns the current user's preference mapping. It returns
// ErrNotLoaded when no user is available. The returned mapping is shared
// with other readers and must be treated as read-only.
func (s *Store) Read(ctx context.Context) (models.Preferences, error) {
	user, err := s.source.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}
	if user == nil {
		return nil, ErrNotLoaded
	}
	return s.resolve(user), nil
}

// Update shallow-merges partial over the latest resolved mapping and writes
// the merged result back through the user mutator, leaving every other user
// field unchanged. The merge base is re-read at call time, not taken from
// whatever the caller last observed. Returns the merged mapping.
func (s *Store) Update(ctx context.Context, partial models.Preferences) (models.Preferences, error) {
	user, err := s.source.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}
	if user == nil {
		return nil, ErrNotLoaded
	}

	merged := s.resolve(user).Merge(partial)

	blob, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("serializing preferences: %w", err)
	}

	updated := user.Clone()
	raw := string(blob)
	updated.Accessibility = &raw

	if _, err := s.source.UpdateUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("writing preferences: %w", err)
	}

	s.collector.RecordPreferenceWrite()
	return merged, nil
}

// resolve returns the parsed mapping for the user's current blob, reusing
// the cached parse when the blob has not changed since.
func (s *Store) resolve(user *models.User) models.Preferences {
	var blob string
	if user.Accessibility != nil {
		blob = *user.Accessibility
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[user.ID]; ok && entry.blob == blob {
		return entry.prefs
	}

	prefs := Parse(blob)
	s.cache[user.ID] = cacheEntry{blob: blob, prefs: prefs}
	return prefs
}

// Parse decodes a raw preference blob. Empty, null, or malformed input
// yields an empty mapping; parse failures never surface to callers.
func Parse(blob string) models.Preferences {
	if blob == "" {
		return models.Preferences{}
	}

	var prefs models.Preferences
	if err := json.Unmarshal([]byte(blob), &prefs); err != nil {
		slog.Warn("malformed preference blob, treating as empty", "error", err)
		return models.Preferences{}
	}
	if prefs == nil {
		// The blob was the JSON literal "null".
		return models.Preferences{}
	}
	return prefs
}
