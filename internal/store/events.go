package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/outplan/outplan/internal/interval"
	"github.com/outplan/outplan/internal/match"
	"github.com/outplan/outplan/internal/prefs"
)

// UpsertEvent writes a catalog event, assigning a UUID when the id is empty.
// Tags are normalized and stored as a sorted JSON array. Returns the stored
// id.
func (s *Store) UpsertEvent(ctx context.Context, ev match.Event) (string, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return "", fmt.Errorf("%w: event title must not be empty", ErrInvalid)
	}
	if !interval.ValidDate(ev.Date) {
		return "", fmt.Errorf("%w: event date %q is not YYYY-MM-DD", ErrInvalid, ev.Date)
	}
	if ev.Start != "" || ev.End != "" {
		if !interval.ValidClock(ev.Start) || !interval.ValidClock(ev.End) {
			return "", fmt.Errorf("%w: event times %q-%q are not HH:MM", ErrInvalid, ev.Start, ev.End)
		}
		if ev.Start >= ev.End {
			return "", fmt.Errorf("%w: event window %s-%s is empty or inverted", ErrInvalid, ev.Start, ev.End)
		}
	}

	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, description, date, start_time, end_time, tags, source_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			tags = excluded.tags,
			source_url = excluded.source_url,
			updated_at = excluded.updated_at`,
		id, ev.Title, ev.Description, ev.Date, ev.Start, ev.End,
		prefs.Encode(prefs.NewSet(ev.Tags...)), ev.SourceURL, ts, ts)
	if err != nil {
		return "", fmt.Errorf("upsert event %q: %w", ev.Title, err)
	}
	return id, nil
}

// DeleteEvent removes a catalog event. Returns ErrNotFound when no event
// with the given id exists.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %q: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %q: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	return nil
}

const eventColumns = `id, title, description, date, start_time, end_time, tags, source_url`

func scanEvent(scanner interface{ Scan(dest ...any) error }) (match.Event, error) {
	var (
		ev   match.Event
		tags string
	)
	if err := scanner.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date,
		&ev.Start, &ev.End, &tags, &ev.SourceURL); err != nil {
		return match.Event{}, err
	}
	if err := json.Unmarshal([]byte(tags), &ev.Tags); err != nil {
		return match.Event{}, fmt.Errorf("decode tags for event %s: %w", ev.ID, err)
	}
	return ev, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]match.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []match.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// EventsByDates returns catalog events on any of the given dates, ordered by
// date then start time. Implements match.Catalog.
func (s *Store) EventsByDates(ctx context.Context, dates []string) ([]match.Event, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",")
	args := make([]any, len(dates))
	for i, d := range dates {
		args[i] = d
	}
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE date IN (`+placeholders+`)
		ORDER BY date, start_time, title`, args...)
}

// AllEvents returns the full catalog ordered by date. Used for search index
// rebuilds.
func (s *Store) AllEvents(ctx context.Context) ([]match.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY date, start_time, title`)
}
