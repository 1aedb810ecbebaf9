package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/outplan/outplan/internal/match"
)

// DefaultLimit bounds searches that do not specify one.
const DefaultLimit = 20

// Params configures one search.
type Params struct {
	Query        string // free text, matched against title, description and tags
	EarliestDate string // when set, only events on or after this date match
	Limit        int
}

var storedFields = []string{"id", "title", "date", "start", "end", "tags", "source_url"}

// Search runs a free-text query and returns scored events.
func (ix *Index) Search(ctx context.Context, p Params) ([]match.Event, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(p), limit, 0, false)
	req.Fields = storedFields

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	events := make([]match.Event, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ev := match.Event{ID: hit.ID, Score: hit.Score}
		if t, ok := hit.Fields["title"].(string); ok {
			ev.Title = t
		}
		if d, ok := hit.Fields["date"].(string); ok {
			ev.Date = d
		}
		if st, ok := hit.Fields["start"].(string); ok {
			ev.Start = st
		}
		if e, ok := hit.Fields["end"].(string); ok {
			ev.End = e
		}
		if u, ok := hit.Fields["source_url"].(string); ok {
			ev.SourceURL = u
		}
		// A single tag comes back as a bare string, several as a slice.
		switch tags := hit.Fields["tags"].(type) {
		case string:
			ev.Tags = []string{tags}
		case []interface{}:
			for _, t := range tags {
				if s, ok := t.(string); ok {
					ev.Tags = append(ev.Tags, s)
				}
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// Retrieve implements match.Retriever. The preference tags become both
// free-text terms and exact tag filters; the earliest-date hint becomes a
// lower bound on the event date.
func (ix *Index) Retrieve(ctx context.Context, q match.Query) ([]match.Event, error) {
	return ix.Search(ctx, Params{
		Query:        strings.Join(q.Tags, " "),
		EarliestDate: q.EarliestDate,
		Limit:        q.Limit,
	})
}

// buildQuery constructs the Bleve query for one search. Text terms are
// disjunctive so any preference tag can surface an event; the date bound, if
// present, is conjunctive.
func buildQuery(p Params) query.Query {
	var parts []query.Query

	text := strings.TrimSpace(p.Query)
	if text != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(text)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		descMatch := bleve.NewMatchQuery(text)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		// Exact tag hits rank above incidental text matches.
		for _, term := range strings.Fields(strings.ToLower(text)) {
			tq := bleve.NewTermQuery(term)
			tq.SetField("tags")
			tq.SetBoost(2.0)
			textQueries = append(textQueries, tq)
		}

		parts = append(parts, bleve.NewDisjunctionQuery(textQueries...))
	}

	if p.EarliestDate != "" {
		// ISO dates compare lexicographically, so a term range works.
		dateQuery := bleve.NewTermRangeQuery(p.EarliestDate, "")
		dateQuery.SetField("date")
		parts = append(parts, dateQuery)
	}

	switch len(parts) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return parts[0]
	default:
		return bleve.NewConjunctionQuery(parts...)
	}
}
