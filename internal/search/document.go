// Package search provides full-text event retrieval using Bleve. The index
// holds one document per catalog event and returns scored matches for
// preference-derived queries.
package search

import "github.com/outplan/outplan/internal/match"

// Document is the indexed form of one event.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// FromEvent converts a catalog event into its indexable document.
func FromEvent(ev match.Event) *Document {
	return &Document{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Date:        ev.Date,
		Start:       ev.Start,
		End:         ev.End,
		Tags:        ev.Tags,
		SourceURL:   ev.SourceURL,
	}
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping. Bleve would otherwise index the capitalized Go
// field names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":    d.ID,
		"title": d.Title,
		"date":  d.Date,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Start != "" {
		m["start"] = d.Start
	}
	if d.End != "" {
		m["end"] = d.End
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.SourceURL != "" {
		m["source_url"] = d.SourceURL
	}
	return m
}
