package store

import (
	"context"
	"fmt"

	"github.com/outplan/outplan/internal/availability"
	"github.com/outplan/outplan/internal/interval"
)

// validateSlot enforces the write-boundary format rules. Reads never
// validate; stored rows are trusted.
func validateSlot(slot availability.BusySlot) error {
	if !interval.ValidDate(slot.Date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalid, slot.Date)
	}
	if !interval.ValidClock(slot.Start) {
		return fmt.Errorf("%w: start %q is not HH:MM", ErrInvalid, slot.Start)
	}
	if !interval.ValidClock(slot.End) {
		return fmt.Errorf("%w: end %q is not HH:MM", ErrInvalid, slot.End)
	}
	if slot.Start >= slot.End {
		return fmt.Errorf("%w: slot %s-%s is empty or inverted", ErrInvalid, slot.Start, slot.End)
	}
	return nil
}

// AddBusySlots validates and inserts busy slots for one user. All slots are
// written in one transaction; any invalid slot rejects the whole batch.
func (s *Store) AddBusySlots(ctx context.Context, userID int64, slots []availability.BusySlot) error {
	for _, slot := range slots {
		if err := validateSlot(slot); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin busy-hours tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO busy_hours (user_id, date, start_time, end_time)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare busy-hours insert: %w", err)
	}
	defer stmt.Close()

	for _, slot := range slots {
		if _, err := stmt.ExecContext(ctx, userID, slot.Date, slot.Start, slot.End); err != nil {
			return fmt.Errorf("insert busy slot for user %d: %w", userID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit busy slots for user %d: %w", userID, err)
	}
	return nil
}

// ClearBusySlots removes all busy slots for one user and reports how many
// rows were deleted.
func (s *Store) ClearBusySlots(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM busy_hours WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear busy slots for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared busy slots: %w", err)
	}
	return n, nil
}

// BusySlotsForUser returns all recorded busy slots for one user ordered by
// date then start time. Implements availability.BusyReader.
func (s *Store) BusySlotsForUser(ctx context.Context, userID int64) ([]availability.BusySlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, date, start_time, end_time
		FROM busy_hours
		WHERE user_id = ?
		ORDER BY date, start_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("load busy slots for user %d: %w", userID, err)
	}
	defer rows.Close()

	var slots []availability.BusySlot
	for rows.Next() {
		var slot availability.BusySlot
		if err := rows.Scan(&slot.UserID, &slot.Date, &slot.Start, &slot.End); err != nil {
			return nil, fmt.Errorf("scan busy slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate busy slots: %w", err)
	}
	return slots, nil
}
