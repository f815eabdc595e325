package models

import "time"

// Entry is one published changelog post. The source delivers entries newest
// first, and that order is preserved through normalization.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Featured    bool      `json:"featured"`
}

// Changelog is the normalized changelog feed.
type Changelog struct {
	Entries      []Entry `json:"entries"`
	ChangelogURL string  `json:"changelog_url,omitempty"`
}
