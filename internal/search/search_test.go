package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outplan/outplan/internal/match"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func testEvents() []match.Event {
	return []match.Event{
		{
			ID:          "ev-jazz",
			Title:       "Jazz Night at the Harbor",
			Description: "Live jazz quartet, open air.",
			Date:        "2025-11-10",
			Start:       "19:00",
			End:         "22:00",
			Tags:        []string{"music", "jazz"},
			SourceURL:   "https://example.com/jazz",
		},
		{
			ID:          "ev-hike",
			Title:       "Forest Hike",
			Description: "Guided hike through the hills.",
			Date:        "2025-11-11",
			Start:       "10:00",
			End:         "13:00",
			Tags:        []string{"sport", "outdoor"},
		},
		{
			ID:          "ev-expo",
			Title:       "Retro Tech Expo",
			Description: "Vintage computers and consoles.",
			Date:        "2025-11-08",
			Start:       "10:00",
			End:         "18:00",
			Tags:        []string{"tech"},
		},
	}
}

func TestNewIndexEmpty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexAndSearch(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexEvents(testEvents()))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	hits, err := index.Search(context.Background(), Params{Query: "jazz"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	top := hits[0]
	assert.Equal(t, "ev-jazz", top.ID)
	assert.Equal(t, "Jazz Night at the Harbor", top.Title)
	assert.Equal(t, "2025-11-10", top.Date)
	assert.Equal(t, "19:00", top.Start)
	assert.Equal(t, "22:00", top.End)
	assert.ElementsMatch(t, []string{"music", "jazz"}, top.Tags)
	assert.Equal(t, "https://example.com/jazz", top.SourceURL)
	assert.Greater(t, top.Score, 0.0)
}

func TestSearchEarliestDateBound(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexEvents(testEvents()))

	hits, err := index.Search(context.Background(), Params{EarliestDate: "2025-11-10"})
	require.NoError(t, err)

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{"ev-jazz", "ev-hike"}, ids, "events before the bound are excluded")
}

func TestRetrieveBuildsQueryFromTags(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexEvents(testEvents()))

	hits, err := index.Retrieve(context.Background(), match.Query{
		Tags:         []string{"sport", "outdoor"},
		EarliestDate: "2025-11-10",
		Limit:        10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ev-hike", hits[0].ID)
}

func TestDeleteEvent(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexEvents(testEvents()))

	require.NoError(t, index.DeleteEvent("ev-expo"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

type sliceSource []match.Event

func (s sliceSource) AllEvents(context.Context) ([]match.Event, error) {
	return s, nil
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexEvents(testEvents()))

	n, err := index.Rebuild(context.Background(), sliceSource(testEvents()[:1]))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := index.Search(context.Background(), Params{Query: "jazz"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ev-jazz", hits[0].ID)
}
