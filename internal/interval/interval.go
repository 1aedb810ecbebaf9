// Package interval provides clock-time interval arithmetic for a single day.
//
// All times are zero-padded "HH:MM" strings, which makes lexicographic
// comparison equivalent to chronological comparison. Validation of the format
// happens at the storage write boundary (see the store package); the algebra
// itself assumes well-formed input.
package interval

import (
	"regexp"
	"sort"
	"time"
)

// Default day window used when deriving free time from busy slots.
const (
	DefaultDayStart = "08:00"
	DefaultDayEnd   = "22:00"
)

// Span is a half-open clock interval [Start, End) within one day.
type Span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Window bounds the portion of a day considered for free-time derivation.
type Window struct {
	Start string
	End   string
}

// DefaultWindow returns the standard 08:00-22:00 day window.
func DefaultWindow() Window {
	return Window{Start: DefaultDayStart, End: DefaultDayEnd}
}

// InvertBusyToFree converts one day's busy spans into the maximal free spans
// within the given window. Busy spans may overlap and arrive in any order;
// the cursor only ever advances, so overlapping busy time never produces a
// spurious free gap. A busy span covering the whole window yields no free
// spans at all.
func InvertBusyToFree(busy []Span, win Window) []Span {
	sorted := make([]Span, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var free []Span
	cursor := win.Start
	for _, b := range sorted {
		if b.Start > cursor {
			free = append(free, Span{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < win.End {
		free = append(free, Span{Start: cursor, End: win.End})
	}
	return free
}

// Overlap computes the pairwise intersections of two span lists for the same
// day. Only strictly positive overlaps are kept; spans that merely touch at a
// boundary are discarded. Daily span counts are single digits, so the
// quadratic pairing is fine.
func Overlap(a, b []Span) []Span {
	var out []Span
	for _, x := range a {
		for _, y := range b {
			start := maxClock(x.Start, y.Start)
			end := minClock(x.End, y.End)
			if start < end {
				out = append(out, Span{Start: start, End: end})
			}
		}
	}
	return out
}

// Overlaps reports whether two spans share any positive amount of time.
// Touching boundaries (x.End == y.Start) do not count.
func Overlaps(x, y Span) bool {
	return !(x.End <= y.Start || y.End <= x.Start)
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidClock reports whether s is a zero-padded 24h "HH:MM" string.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ValidDate reports whether s is an ISO "YYYY-MM-DD" calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func maxClock(a, b string) string {
	if a > b {
		return a
	}
	return b
}

func minClock(a, b string) string {
	if a < b {
		return a
	}
	return b
}
