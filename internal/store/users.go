package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/outplan/outplan/internal/prefs"
)

// User is a stored profile. Preferences holds the sorted tag list.
type User struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name,omitempty"`
	Preferences []string `json:"preferences"`
}

// EnsureUser creates the user row if missing, updating the display name when
// a non-empty one is supplied.
func (s *Store) EnsureUser(ctx context.Context, userID int64, name string) error {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, preferences, created_at, updated_at)
		VALUES (?, ?, '[]', ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE users.name END,
			updated_at = excluded.updated_at`,
		userID, name, ts, ts)
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

// GetUser loads one user. Returns ErrNotFound for unknown ids.
func (s *Store) GetUser(ctx context.Context, userID int64) (*User, error) {
	var (
		u   User
		raw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, preferences FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.Name, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	u.Preferences = prefs.Load(raw).Sorted()
	return &u, nil
}

// PreferencesForUser loads one user's preference set. Unknown users have an
// empty set; legacy serializations are decoded defensively.
func (s *Store) PreferencesForUser(ctx context.Context, userID int64) (prefs.Set, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT preferences FROM users WHERE id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs.Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences for user %d: %w", userID, err)
	}
	return prefs.Load(raw), nil
}

// UpdatePreferences applies add then remove to the stored preference set
// inside a single transaction and returns the resulting sorted tags. The
// read-modify-write is transactional so concurrent updates to the same user
// never interleave.
func (s *Store) UpdatePreferences(ctx context.Context, userID int64, add, remove []string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin preferences tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT preferences FROM users WHERE id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences for user %d: %w", userID, err)
	}

	set := prefs.Apply(prefs.Load(raw), add, remove)
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET preferences = ?, updated_at = ? WHERE id = ?`,
		prefs.Encode(set), now(), userID); err != nil {
		return nil, fmt.Errorf("write preferences for user %d: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit preferences for user %d: %w", userID, err)
	}
	return set.Sorted(), nil
}
