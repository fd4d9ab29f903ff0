package domain

import (
	"slices"
	"strings"
)

// System tag labels. They describe wager state and can never be picked by users.
const (
	TagOpen   = "Open"
	TagClosed = "Closed"
)

// TagOption is an entry in the curated tag catalog.
type TagOption struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Slug         string `json:"slug"`
	SortOrder    int    `json:"sort_order"`
	IsSelectable *bool  `json:"is_selectable,omitempty"` // nil means selectable
}

// Selectable reports whether users may attach this tag to a wager.
// System labels are never selectable regardless of the stored flag.
func (t *TagOption) Selectable() bool {
	if IsSystemTag(t.Label) {
		return false
	}
	return t.IsSelectable == nil || *t.IsSelectable
}

// IsSystemTag reports whether label is one of the reserved state labels.
func IsSystemTag(label string) bool {
	l := strings.TrimSpace(label)
	return strings.EqualFold(l, TagOpen) || strings.EqualFold(l, TagClosed)
}

// WagerTag attaches one label to a wager.
type WagerTag struct {
	ID      string `json:"id"`
	WagerID string `json:"wager_id"`
	Tag     string `json:"tag"`
}

// NormalizeTags trims labels, drops empties and removes exact duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ApplicableTags returns the tags a new wager carries: "Open" followed by every
// requested label that matches a selectable catalog entry exactly.
// Unknown, system and non-selectable labels are dropped without error.
func ApplicableTags(requested []string, catalog []*TagOption) []string {
	selectable := make(map[string]bool, len(catalog))
	for _, opt := range catalog {
		if opt.Selectable() {
			selectable[opt.Label] = true
		}
	}

	out := []string{TagOpen}
	for _, t := range NormalizeTags(requested) {
		if selectable[t] && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// CatalogEntry is a label in the built-in tag catalog.
type CatalogEntry struct {
	Label      string
	Selectable bool
}

// DefaultTagCatalog is installed on first start, in sort order.
var DefaultTagCatalog = []CatalogEntry{
	{Label: TagOpen, Selectable: false},
	{Label: TagClosed, Selectable: false},
	{Label: "Trending", Selectable: true},
	{Label: "Low risk", Selectable: true},
	{Label: "Completed", Selectable: true},
}
