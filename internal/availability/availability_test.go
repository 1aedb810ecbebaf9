package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outplan/outplan/internal/interval"
)

type fakeReader struct {
	slots map[int64][]BusySlot
	err   error
}

func (f *fakeReader) BusySlotsForUser(_ context.Context, userID int64) ([]BusySlot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slots[userID], nil
}

func TestUserFreeSlots(t *testing.T) {
	r := &fakeReader{slots: map[int64][]BusySlot{
		1: {
			{UserID: 1, Date: "2025-11-10", Start: "09:00", End: "11:00"},
			{UserID: 1, Date: "2025-11-11", Start: "08:00", End: "22:00"},
		},
	}}

	free, err := UserFreeSlots(context.Background(), r, 1, interval.DefaultWindow())
	require.NoError(t, err)

	assert.Equal(t, ByDate{
		"2025-11-10": {{Start: "08:00", End: "09:00"}, {Start: "11:00", End: "22:00"}},
	}, free, "a fully busy day is omitted, not mapped to an empty list")
}

func TestUserFreeSlotsPropagatesError(t *testing.T) {
	r := &fakeReader{err: errors.New("db gone")}
	_, err := UserFreeSlots(context.Background(), r, 7, interval.DefaultWindow())
	assert.ErrorContains(t, err, "user 7")
}

func TestCommon(t *testing.T) {
	win := interval.DefaultWindow()

	t.Run("no users yields empty mapping", func(t *testing.T) {
		common, err := Common(context.Background(), &fakeReader{}, nil, win)
		require.NoError(t, err)
		assert.Empty(t, common)
	})

	t.Run("single user equals own free slots", func(t *testing.T) {
		r := &fakeReader{slots: map[int64][]BusySlot{
			1: {{UserID: 1, Date: "2025-11-10", Start: "09:00", End: "11:00"}},
		}}

		common, err := Common(context.Background(), r, []int64{1}, win)
		require.NoError(t, err)

		own, err := UserFreeSlots(context.Background(), r, 1, win)
		require.NoError(t, err)
		assert.Equal(t, own, common)
	})

	t.Run("two users intersect per date", func(t *testing.T) {
		r := &fakeReader{slots: map[int64][]BusySlot{
			1: {{UserID: 1, Date: "2025-11-10", Start: "09:00", End: "11:00"}},
			2: {{UserID: 2, Date: "2025-11-10", Start: "08:00", End: "09:30"}},
		}}

		common, err := Common(context.Background(), r, []int64{1, 2}, win)
		require.NoError(t, err)
		assert.Equal(t, ByDate{
			"2025-11-10": {{Start: "11:00", End: "22:00"}},
		}, common)
	})

	t.Run("date present for only one user is dropped", func(t *testing.T) {
		r := &fakeReader{slots: map[int64][]BusySlot{
			1: {{UserID: 1, Date: "2025-11-10", Start: "09:00", End: "11:00"}},
			2: {{UserID: 2, Date: "2025-11-12", Start: "09:00", End: "11:00"}},
		}}

		common, err := Common(context.Background(), r, []int64{1, 2}, win)
		require.NoError(t, err)
		assert.Empty(t, common)
	})

	t.Run("adding users never grows coverage", func(t *testing.T) {
		r := &fakeReader{slots: map[int64][]BusySlot{
			1: {{UserID: 1, Date: "2025-11-10", Start: "09:00", End: "10:00"}},
			2: {{UserID: 2, Date: "2025-11-10", Start: "12:00", End: "14:00"}},
			3: {{UserID: 3, Date: "2025-11-10", Start: "08:00", End: "20:00"}},
		}}

		ctx := context.Background()
		two, err := Common(ctx, r, []int64{1, 2}, win)
		require.NoError(t, err)
		three, err := Common(ctx, r, []int64{1, 2, 3}, win)
		require.NoError(t, err)

		assert.LessOrEqual(t, totalMinutes(t, three), totalMinutes(t, two))
	})

	t.Run("intersection does not mutate reader state", func(t *testing.T) {
		shared := []BusySlot{{UserID: 1, Date: "2025-11-10", Start: "09:00", End: "11:00"}}
		r := &fakeReader{slots: map[int64][]BusySlot{1: shared, 2: {
			{UserID: 2, Date: "2025-11-10", Start: "12:00", End: "13:00"},
		}}}

		_, err := Common(context.Background(), r, []int64{1, 2}, win)
		require.NoError(t, err)
		assert.Equal(t, "09:00", shared[0].Start)
	})
}

func TestByDateDays(t *testing.T) {
	b := ByDate{"2025-11-12": nil, "2025-11-10": nil, "2025-11-11": nil}
	assert.Equal(t, []string{"2025-11-10", "2025-11-11", "2025-11-12"}, b.Days())
}

func totalMinutes(t *testing.T, b ByDate) int {
	t.Helper()
	total := 0
	for _, spans := range b {
		for _, s := range spans {
			total += clockMinutes(s.End) - clockMinutes(s.Start)
		}
	}
	return total
}

func clockMinutes(hhmm string) int {
	h := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	m := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	return h*60 + m
}
