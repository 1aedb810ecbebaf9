package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outplan/outplan/internal/availability"
	"github.com/outplan/outplan/internal/match"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsureAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 42, "Dana"))

	u, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, "Dana", u.Name)
	assert.Empty(t, u.Preferences)

	// Re-ensuring with an empty name keeps the stored one.
	require.NoError(t, s.EnsureUser(ctx, 42, ""))
	u, err = s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Dana", u.Name)

	_, err = s.GetUser(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureUser(ctx, 1, ""))

	got, err := s.UpdatePreferences(ctx, 1, []string{"Sport", "TECH"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sport", "tech"}, got)

	// Remove wins over add for the same tag.
	got, err = s.UpdatePreferences(ctx, 1, []string{"food", "sport"}, []string{"SPORT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "tech"}, got)

	set, err := s.PreferencesForUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, set.Has("food"))
	assert.False(t, set.Has("sport"))

	_, err = s.UpdatePreferences(ctx, 99, []string{"x"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreferencesForUnknownUserIsEmpty(t *testing.T) {
	s := newTestStore(t)

	set, err := s.PreferencesForUser(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestBusySlots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureUser(ctx, 1, ""))

	slots := []availability.BusySlot{
		{Date: "2025-11-11", Start: "14:00", End: "15:00"},
		{Date: "2025-11-10", Start: "09:00", End: "11:00"},
	}
	require.NoError(t, s.AddBusySlots(ctx, 1, slots))

	got, err := s.BusySlotsForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-11-10", got[0].Date, "rows come back ordered by date")
	assert.Equal(t, int64(1), got[0].UserID)

	n, err := s.ClearBusySlots(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err = s.BusySlotsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddBusySlotsValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureUser(ctx, 1, ""))

	tests := []struct {
		name string
		slot availability.BusySlot
	}{
		{"bad date", availability.BusySlot{Date: "11/10/2025", Start: "09:00", End: "10:00"}},
		{"bad start", availability.BusySlot{Date: "2025-11-10", Start: "9am", End: "10:00"}},
		{"bad end", availability.BusySlot{Date: "2025-11-10", Start: "09:00", End: "25:00"}},
		{"inverted", availability.BusySlot{Date: "2025-11-10", Start: "11:00", End: "09:00"}},
		{"empty", availability.BusySlot{Date: "2025-11-10", Start: "09:00", End: "09:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := availability.BusySlot{Date: "2025-11-10", Start: "07:00", End: "08:00"}
			err := s.AddBusySlots(ctx, 1, []availability.BusySlot{valid, tt.slot})
			assert.ErrorIs(t, err, ErrInvalid)

			got, err := s.BusySlotsForUser(ctx, 1)
			require.NoError(t, err)
			assert.Empty(t, got, "a rejected batch writes nothing")
		})
	}
}

func TestTeams(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	team, err := s.CreateTeam(ctx, "weekend crew")
	require.NoError(t, err)
	assert.Len(t, team.Code, teamCodeLength)

	_, err = s.JoinTeam(ctx, 1, team.Code)
	require.NoError(t, err)
	_, err = s.JoinTeam(ctx, 2, team.Code)
	require.NoError(t, err)
	_, err = s.JoinTeam(ctx, 1, team.Code) // rejoin is a no-op
	require.NoError(t, err)

	ids, err := s.TeamMemberIDs(ctx, team.Code)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	_, err = s.JoinTeam(ctx, 3, "NOPE1234")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateTeam(ctx, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertEvent(ctx, match.Event{
		Title: "Jazz Night",
		Date:  "2025-11-10",
		Start: "19:00",
		End:   "22:00",
		Tags:  []string{"Music", "jazz"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id, "missing id gets generated")

	_, err = s.UpsertEvent(ctx, match.Event{
		ID:    "hike-1",
		Title: "Forest Hike",
		Date:  "2025-11-11",
		Start: "10:00",
		End:   "13:00",
		Tags:  []string{"sport", "outdoor"},
	})
	require.NoError(t, err)

	events, err := s.EventsByDates(ctx, []string{"2025-11-10"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Jazz Night", events[0].Title)
	assert.Equal(t, []string{"jazz", "music"}, events[0].Tags, "tags are stored normalized and sorted")

	// Upsert by id replaces fields.
	_, err = s.UpsertEvent(ctx, match.Event{
		ID:    "hike-1",
		Title: "Forest Hike",
		Date:  "2025-11-12",
		Start: "10:00",
		End:   "13:00",
	})
	require.NoError(t, err)

	all, err := s.AllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2025-11-12", all[1].Date)

	none, err := s.EventsByDates(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpsertEventValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertEvent(ctx, match.Event{Title: "  ", Date: "2025-11-10"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.UpsertEvent(ctx, match.Event{Title: "X", Date: "next friday"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.UpsertEvent(ctx, match.Event{Title: "X", Date: "2025-11-10", Start: "19:00", End: "18:00"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.UpsertEvent(ctx, match.Event{Title: "X", Date: "2025-11-10", Start: "19:00"})
	assert.ErrorIs(t, err, ErrInvalid, "start without end is rejected")
}
