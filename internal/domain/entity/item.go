package entity

import "time"

// Item is a single post observed on a profile. The ID is assigned by the
// upstream (the post shortcode) and is stable across refetches. Items are
// immutable once produced by the fetch chain; PublishedAt is best-effort
// and may be the zero value when the upstream does not report it.
type Item struct {
	ID           string
	URL          string
	Title        string
	Description  string
	PublishedAt  time.Time
	ThumbnailURL string
}

// HasPublishedAt reports whether the item carries a usable timestamp.
func (i *Item) HasPublishedAt() bool {
	return !i.PublishedAt.IsZero()
}
