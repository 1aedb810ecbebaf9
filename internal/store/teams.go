package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/outplan/outplan/internal/logging"
)

// teamCodeAlphabet avoids lookalike characters so codes survive being read
// aloud or typed into a chat.
const (
	teamCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	teamCodeLength   = 8
)

// Team is a named group of users joined by a shared code.
type Team struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateTeam creates a team with a freshly generated join code.
func (s *Store) CreateTeam(ctx context.Context, name string) (*Team, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: team name must not be empty", ErrInvalid)
	}
	code, err := gonanoid.Generate(teamCodeAlphabet, teamCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate team code: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (code, name, created_at) VALUES (?, ?, ?)`,
		code, name, now())
	if err != nil {
		return nil, fmt.Errorf("create team %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read team id: %w", err)
	}
	s.logger.Info("team created", logging.Team(code), "name", name)
	return &Team{ID: id, Code: code, Name: name}, nil
}

// GetTeamByCode looks a team up by its join code. Returns ErrNotFound for
// unknown codes.
func (s *Store) GetTeamByCode(ctx context.Context, code string) (*Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM teams WHERE code = ?`, code).
		Scan(&t.ID, &t.Code, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team %q: %w", code, err)
	}
	return &t, nil
}

// JoinTeam adds the user to the team identified by code. Joining twice is a
// no-op. The user row is created if it does not exist yet.
func (s *Store) JoinTeam(ctx context.Context, userID int64, code string) (*Team, error) {
	team, err := s.GetTeamByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureUser(ctx, userID, ""); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT(team_id, user_id) DO NOTHING`,
		team.ID, userID, now()); err != nil {
		return nil, fmt.Errorf("join team %q as user %d: %w", code, userID, err)
	}
	s.logger.Info("user joined team", logging.Team(code), logging.UserHash(userID))
	return team, nil
}

// TeamMemberIDs returns the member user ids of the team with the given
// join code, ordered by join time.
func (s *Store) TeamMemberIDs(ctx context.Context, code string) ([]int64, error) {
	team, err := s.GetTeamByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM team_members
		WHERE team_id = ?
		ORDER BY joined_at, user_id`, team.ID)
	if err != nil {
		return nil, fmt.Errorf("load members of team %q: %w", code, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return ids, nil
}
