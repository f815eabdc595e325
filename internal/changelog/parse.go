package changelog

import (
	"encoding/json"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/hoangminh/herald/internal/models"
)

// parseJSON normalizes the JSON changelog document. Normalization is a
// pure mapping: each raw post becomes one entry in the same position, with
// published_at parsed into a timestamp and the excerpt reduced to plain
// text. A null or absent posts array becomes an empty entry list.
func (c *Client) parseJSON(body []byte) (*models.Changelog, error) {
	var raw rawChangelog
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding changelog JSON: %w", err)
	}

	entries := make([]models.Entry, 0, len(raw.Posts))
	for _, post := range raw.Posts {
		entries = append(entries, models.Entry{
			ID:          post.ID,
			Title:       post.Title,
			Excerpt:     c.sanitizeExcerpt(post.Excerpt),
			URL:         post.URL,
			PublishedAt: parseTimestamp(post.PublishedAt),
			Featured:    post.Featured,
		})
	}

	return &models.Changelog{
		Entries:      entries,
		ChangelogURL: raw.ChangelogURL,
	}, nil
}

// parseFeed normalizes an RSS or Atom changelog. Item order is preserved.
// RSS carries no featured flag, so every entry is unfeatured.
func (c *Client) parseFeed(body []byte) (*models.Changelog, error) {
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing changelog feed: %w", err)
	}

	entries := make([]models.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entry := models.Entry{
			ID:      item.GUID,
			Title:   item.Title,
			Excerpt: c.sanitizeExcerpt(item.Description),
			URL:     item.Link,
		}
		if entry.ID == "" {
			entry.ID = item.Link
		}
		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
		}
		entries = append(entries, entry)
	}

	return &models.Changelog{
		Entries:      entries,
		ChangelogURL: feed.Link,
	}, nil
}
