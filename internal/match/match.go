// Package match implements event matching against user preferences and
// derived availability. Candidates come either from a relational catalog
// (tag gate applies) or from a retrieval index (the query text already
// encodes the preference tags, so only the time filter applies).
package match

import (
	"sort"
	"strings"

	"github.com/outplan/outplan/internal/availability"
	"github.com/outplan/outplan/internal/interval"
	"github.com/outplan/outplan/internal/prefs"
)

// Event is a candidate event for one matching request. Instances are
// treated as immutable once produced by a catalog or retriever.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	Score       float64  `json:"score,omitempty"`
}

// PassesTagGate reports whether ev shares at least one tag with the
// preference set. An empty preference set disables the gate entirely.
func PassesTagGate(ev Event, set prefs.Set) bool {
	if len(set) == 0 {
		return true
	}
	for _, tag := range ev.Tags {
		if set.Has(prefs.Normalize(tag)) {
			return true
		}
	}
	return false
}

// Attendable reports whether the event window overlaps any of the free
// spans. Boundary touching does not count as overlap. Events without a
// start or end time are accepted as long as at least one free span exists
// on that day.
func Attendable(ev Event, free []interval.Span) bool {
	if len(free) == 0 {
		return false
	}
	if ev.Start == "" || ev.End == "" {
		return true
	}
	window := interval.Span{Start: ev.Start, End: ev.End}
	for _, span := range free {
		if interval.Overlaps(window, span) {
			return true
		}
	}
	return false
}

// FilterCatalog applies the tag gate and the time-overlap rule against
// per-date availability. Events on dates with no availability are dropped.
func FilterCatalog(events []Event, set prefs.Set, avail availability.ByDate) []Event {
	var out []Event
	for _, ev := range events {
		if !PassesTagGate(ev, set) {
			continue
		}
		if !Attendable(ev, avail[ev.Date]) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// FilterRetrieved applies only the availability filter; retrieval hits were
// already selected by a preference-derived query, so no tag gate runs.
func FilterRetrieved(events []Event, avail availability.ByDate) []Event {
	var out []Event
	for _, ev := range events {
		if !Attendable(ev, avail[ev.Date]) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func dedupeKey(ev Event) string {
	return strings.ToLower(strings.TrimSpace(ev.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(ev.Date))
}

// Dedupe collapses events sharing a (title, date) key, case- and
// whitespace-insensitively, keeping the entry with the higher score.
// Relative order of the surviving entries is preserved.
func Dedupe(events []Event) []Event {
	index := make(map[string]int, len(events))
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		key := dedupeKey(ev)
		if at, seen := index[key]; seen {
			if ev.Score > out[at].Score {
				out[at] = ev
			}
			continue
		}
		index[key] = len(out)
		out = append(out, ev)
	}
	return out
}

// SortByDate orders events by date, then start time, then title. This is
// the policy for catalog-backed results.
func SortByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].Start != events[j].Start {
			return events[i].Start < events[j].Start
		}
		return events[i].Title < events[j].Title
	})
}

// SortByScore orders events by descending score, breaking ties by
// ascending date. This is the policy for retrieval-backed results.
func SortByScore(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Score != events[j].Score {
			return events[i].Score > events[j].Score
		}
		return events[i].Date < events[j].Date
	})
}
