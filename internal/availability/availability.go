// Package availability derives free time from stored busy hours and
// intersects it across users.
package availability

import (
	"context"
	"fmt"
	"sort"

	"github.com/outplan/outplan/internal/interval"
)

// BusySlot is one recorded unavailable interval for a user on a date.
type BusySlot struct {
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// BusyReader is the storage collaborator the aggregator needs: all busy
// slots for one user, in no particular order.
type BusyReader interface {
	BusySlotsForUser(ctx context.Context, userID int64) ([]BusySlot, error)
}

// ByDate maps an ISO date to the free spans on that date, maximal,
// non-overlapping and sorted by start. Dates with no free time are omitted
// rather than mapped to an empty list.
type ByDate map[string][]interval.Span

// Days returns the mapped dates in ascending order.
func (b ByDate) Days() []string {
	days := make([]string, 0, len(b))
	for d := range b {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// UserFreeSlots computes a user's free spans per date: busy slots are
// grouped by date and each day's list is inverted within the window.
func UserFreeSlots(ctx context.Context, r BusyReader, userID int64, win interval.Window) (ByDate, error) {
	slots, err := r.BusySlotsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load busy slots for user %d: %w", userID, err)
	}

	busyByDate := make(map[string][]interval.Span)
	for _, s := range slots {
		busyByDate[s.Date] = append(busyByDate[s.Date], interval.Span{Start: s.Start, End: s.End})
	}

	free := make(ByDate, len(busyByDate))
	for date, busy := range busyByDate {
		if spans := interval.InvertBusyToFree(busy, win); len(spans) > 0 {
			free[date] = spans
		}
	}
	return free, nil
}

// Common intersects free time across all given users. The result shrinks
// monotonically as users are added, so the fold stops as soon as it is
// empty. An empty user list yields an empty mapping.
func Common(ctx context.Context, r BusyReader, userIDs []int64, win interval.Window) (ByDate, error) {
	if len(userIDs) == 0 {
		return ByDate{}, nil
	}

	first, err := UserFreeSlots(ctx, r, userIDs[0], win)
	if err != nil {
		return nil, err
	}

	// Deep copy the seed so intersection never mutates what the reader
	// handed out.
	common := make(ByDate, len(first))
	for date, spans := range first {
		common[date] = append([]interval.Span(nil), spans...)
	}

	for _, uid := range userIDs[1:] {
		next, err := UserFreeSlots(ctx, r, uid, win)
		if err != nil {
			return nil, err
		}

		narrowed := make(ByDate)
		for date, spans := range common {
			other, ok := next[date]
			if !ok {
				continue
			}
			if overlap := interval.Overlap(spans, other); len(overlap) > 0 {
				narrowed[date] = overlap
			}
		}
		common = narrowed
		if len(common) == 0 {
			break
		}
	}

	return common, nil
}
