// Package changelog fetches the remote product changelog and normalizes it
// into a canonical in-memory shape.
package changelog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hoangminh/herald/internal/metrics"
	"github.com/hoangminh/herald/internal/models"
)

// ErrFetchFailed is returned when the changelog source responds with a
// non-success status.
var ErrFetchFailed = errors.New("changelog fetch failed")

const userAgent = "Herald/1.0"

// Client fetches and normalizes the changelog feed. The primary wire format
// is the JSON changelog document; sources serving RSS or Atom instead are
// handled through a feed-parser fallback.
type Client struct {
	httpClient *http.Client
	url        string
	policy     *bluemonday.Policy
	collector  *metrics.Collector
}

// NewClient creates a Client for the given changelog URL.
func NewClient(url string, timeout time.Duration, collector *metrics.Collector) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		policy:     bluemonday.StrictPolicy(),
		collector:  collector,
	}
}

// rawEntry is the JSON wire shape of a single changelog post.
type rawEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Featured    bool   `json:"featured"`
}

// rawChangelog is the JSON wire shape of the changelog document. Posts may
// be null or absent; both normalize to an empty entry list.
type rawChangelog struct {
	Posts        []rawEntry `json:"posts"`
	ChangelogURL string     `json:"changelogUrl"`
}

// Fetch retrieves the changelog and returns it in normalized form. A
// non-2xx response yields an error wrapping ErrFetchFailed; transport
// failures are returned as-is. Entry order is preserved exactly as the
// source delivered it (newest first).
func (c *Client) Fetch(ctx context.Context) (*models.Changelog, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building changelog request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.collector.RecordFetchFailure()
		return nil, fmt.Errorf("fetching changelog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.collector.RecordFetchFailure()
		return nil, fmt.Errorf("%w: status %d from %s", ErrFetchFailed, resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.collector.RecordFetchFailure()
		return nil, fmt.Errorf("reading changelog response: %w", err)
	}

	var changelog *models.Changelog
	if isJSONContent(resp.Header.Get("Content-Type"), body) {
		changelog, err = c.parseJSON(body)
	} else {
		changelog, err = c.parseFeed(body)
	}
	if err != nil {
		c.collector.RecordFetchFailure()
		return nil, err
	}

	c.collector.RecordFetchSuccess(time.Since(start))
	return changelog, nil
}

// sanitizeExcerpt reduces an excerpt to plain text: HTML is stripped and
// surviving entities are left to the strict policy to unescape on render.
func (c *Client) sanitizeExcerpt(s string) string {
	return c.policy.Sanitize(s)
}

// isJSONContent decides whether the response body should be parsed as the
// JSON changelog document. The Content-Type header wins when present;
// otherwise a leading '{' is taken as JSON.
func isJSONContent(contentType string, body []byte) bool {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if mediaType == "application/json" || mediaType == "text/json" {
				return true
			}
			if mediaType == "application/rss+xml" || mediaType == "application/atom+xml" ||
				mediaType == "application/xml" || mediaType == "text/xml" {
				return false
			}
		}
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// parseTimestamp parses an ISO-8601-like publication timestamp. Entries
// whose timestamp cannot be parsed get the zero time, which orders them
// before any last-seen instant.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
