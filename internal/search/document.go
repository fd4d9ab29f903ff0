// Package search provides full-text search over wagers using Bleve.
//
// The index is a projection of the store: it is rebuilt from the store on
// startup and kept current by an Indexer subscribed to committed events, so
// losing it never loses data.
package search

import (
	"github.com/workbets/workbets-server/internal/domain"
)

// WagerDocument is a wager flattened for the index. Option labels and tags are
// denormalized onto the wager so one query covers every field.
type WagerDocument struct {
	ID          string
	Title       string
	Description string
	Options     []string
	Tags        []string
	Status      string
	WorkplaceID string
	CreatedAt   int64 // Unix millis
}

// NewWagerDocument builds the index document for a wager. workplaceID is the
// wager's resolved workplace.
func NewWagerDocument(w *domain.Wager, workplaceID string, options []*domain.Option, tags []*domain.WagerTag) *WagerDocument {
	doc := &WagerDocument{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Status:      string(w.Status),
		WorkplaceID: workplaceID,
		CreatedAt:   w.CreatedAt.UnixMilli(),
	}
	for _, o := range options {
		doc.Options = append(doc.Options, o.Label)
	}
	for _, t := range tags {
		doc.Tags = append(doc.Tags, t.Tag)
	}
	return doc
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *WagerDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"title":        d.Title,
		"status":       d.Status,
		"workplace_id": d.WorkplaceID,
		"created_at":   d.CreatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Options) > 0 {
		m["options"] = d.Options
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
