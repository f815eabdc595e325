package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangminh/herald/internal/api"
	"github.com/hoangminh/herald/internal/changelog"
	"github.com/hoangminh/herald/internal/config"
	"github.com/hoangminh/herald/internal/metrics"
	"github.com/hoangminh/herald/internal/prefs"
	"github.com/hoangminh/herald/internal/storage"
	"github.com/hoangminh/herald/internal/whatsnew"
)

// testEnv wires the full HTTP surface against an in-memory user store and a
// stub changelog endpoint.
type testEnv struct {
	router  http.Handler
	storage *storage.Store
	prefs   *prefs.Store
}

// newTestEnv builds a router backed by an in-memory SQLite store with one
// seeded user. changelogHandler serves the upstream changelog endpoint.
func newTestEnv(t *testing.T, changelogHandler http.HandlerFunc) *testEnv {
	t.Helper()
	env := newEmptyTestEnv(t, changelogHandler)

	if err := env.storage.SeedDefaultUser(context.Background()); err != nil {
		t.Fatalf("seeding default user: %v", err)
	}
	return env
}

// newEmptyTestEnv is newTestEnv without the seeded user, for exercising the
// not-loaded paths.
func newEmptyTestEnv(t *testing.T, changelogHandler http.HandlerFunc) *testEnv {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	users := storage.NewStore(db)

	upstream := httptest.NewServer(changelogHandler)
	t.Cleanup(upstream.Close)

	collector := metrics.NewCollector(prometheus.NewRegistry())
	store := prefs.NewStore(users, collector)
	notifier := whatsnew.NewService(store)
	feed := changelog.NewClient(upstream.URL, 5*time.Second, collector)

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.RateLimitPerMinute = 100000

	return &testEnv{
		router:  api.NewRouter(store, notifier, feed, prometheus.NewRegistry(), cfg),
		storage: users,
		prefs:   store,
	}
}

// serveJSONChangelog returns a handler serving a fixed JSON changelog body.
func serveJSONChangelog(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

// do runs a request through the router and returns the recorded response.
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	return w
}

// decodeJSON unmarshals a recorded response body into out.
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

// seedPreferenceBlob writes a raw preference blob straight onto the stored
// user, bypassing the merge path.
func (env *testEnv) seedPreferenceBlob(t *testing.T, blob string) {
	t.Helper()
	ctx := context.Background()

	user, err := env.storage.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if user == nil {
		t.Fatal("no user seeded")
	}
	user.Accessibility = &blob
	if _, err := env.storage.UpdateUser(ctx, user); err != nil {
		t.Fatalf("storing preference blob: %v", err)
	}
}
