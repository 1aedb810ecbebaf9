package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/outplan/outplan/internal/availability"
	"github.com/outplan/outplan/internal/interval"
	"github.com/outplan/outplan/internal/prefs"
)

// ErrTooFewUsers is returned by Joint when fewer than two distinct user ids
// are supplied.
var ErrTooFewUsers = errors.New("joint matching requires at least two distinct users")

// DefaultRetrievalLimit bounds retrieval queries issued by the planner.
const DefaultRetrievalLimit = 25

// Catalog provides relationally stored events for a set of dates.
type Catalog interface {
	EventsByDates(ctx context.Context, dates []string) ([]Event, error)
}

// Query describes one retrieval request. Tags carry the preference terms;
// EarliestDate, when set, hints the retriever toward the first day any
// availability exists.
type Query struct {
	Tags         []string
	EarliestDate string
	Limit        int
}

// Retriever provides scored events from a full-text index.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]Event, error)
}

// PreferenceSource loads one user's preference set.
type PreferenceSource interface {
	PreferencesForUser(ctx context.Context, userID int64) (prefs.Set, error)
}

// Result is the outcome of one matching request.
type Result struct {
	Events       []Event             `json:"events"`
	Availability availability.ByDate `json:"availability"`
	Preferences  []string            `json:"preferences"`
	Retrieval    bool                `json:"retrieval"`
}

// Planner runs personal and joint event matching over its collaborators.
// Catalog and Retriever select the candidate source per request.
type Planner struct {
	Busy      availability.BusyReader
	Prefs     PreferenceSource
	Catalog   Catalog
	Retriever Retriever
	Window    interval.Window
	Limit     int
}

func (p *Planner) window() interval.Window {
	if p.Window.Start == "" || p.Window.End == "" {
		return interval.DefaultWindow()
	}
	return p.Window
}

func (p *Planner) limit() int {
	if p.Limit <= 0 {
		return DefaultRetrievalLimit
	}
	return p.Limit
}

// Personal matches events for a single user against their own preferences
// and free windows.
func (p *Planner) Personal(ctx context.Context, userID int64, useSearch bool) (*Result, error) {
	set, err := p.Prefs.PreferencesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences for user %d: %w", userID, err)
	}
	avail, err := availability.UserFreeSlots(ctx, p.Busy, userID, p.window())
	if err != nil {
		return nil, err
	}
	return p.resolve(ctx, set, avail, useSearch)
}

// Joint matches events for a group against the shared preference
// intersection and the shared availability. At least two distinct user ids
// are required.
func (p *Planner) Joint(ctx context.Context, userIDs []int64, useSearch bool) (*Result, error) {
	ids := distinct(userIDs)
	if len(ids) < 2 {
		return nil, ErrTooFewUsers
	}
	sets := make([]prefs.Set, 0, len(ids))
	for _, id := range ids {
		set, err := p.Prefs.PreferencesForUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load preferences for user %d: %w", id, err)
		}
		sets = append(sets, set)
	}
	shared := prefs.Shared(sets)
	avail, err := availability.Common(ctx, p.Busy, ids, p.window())
	if err != nil {
		return nil, err
	}
	return p.resolve(ctx, shared, avail, useSearch)
}

func (p *Planner) resolve(ctx context.Context, set prefs.Set, avail availability.ByDate, useSearch bool) (*Result, error) {
	res := &Result{
		Events:       []Event{},
		Availability: avail,
		Preferences:  set.Sorted(),
		Retrieval:    useSearch,
	}
	dates := avail.Days()
	if len(dates) == 0 {
		return res, nil
	}

	if useSearch {
		if p.Retriever == nil {
			return nil, errors.New("retrieval requested but no retriever configured")
		}
		hits, err := p.Retriever.Retrieve(ctx, Query{
			Tags:         set.Sorted(),
			EarliestDate: dates[0],
			Limit:        p.limit(),
		})
		if err != nil {
			return nil, fmt.Errorf("retrieve events: %w", err)
		}
		matched := Dedupe(FilterRetrieved(hits, avail))
		SortByScore(matched)
		res.Events = matched
		return res, nil
	}

	candidates, err := p.Catalog.EventsByDates(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("load catalog events: %w", err)
	}
	matched := FilterCatalog(candidates, set, avail)
	SortByDate(matched)
	if matched != nil {
		res.Events = matched
	}
	return res, nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
