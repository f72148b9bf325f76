package synclog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/logging"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/models"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testutil.NewTestDB(t), logging.NewNop())
}

func TestStartAndCompleteUnit(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id, err := repo.StartUnit(ctx, "characters")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entry, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusStarted, entry.Status)
	assert.Equal(t, "characters", entry.EntityType)
	assert.Nil(t, entry.EndTime)

	require.NoError(t, repo.CompleteUnit(ctx, id, models.SyncStats{Fetched: 5, Synced: 4, Errors: 1}))

	entry, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusCompleted, entry.Status)
	assert.Equal(t, 5, entry.RecordsFetched)
	assert.Equal(t, 4, entry.RecordsSynced)
	assert.Equal(t, 1, entry.Errors)
	require.NotNil(t, entry.EndTime)
	assert.False(t, entry.EndTime.Before(entry.StartTime))
}

func TestFailUnitKeepsDetail(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id, err := repo.StartUnit(ctx, "puzzles")
	require.NoError(t, err)
	require.NoError(t, repo.FailUnit(ctx, id, models.SyncStats{Fetched: 3}, "source unavailable"))

	entry, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, entry.Status)
	assert.Equal(t, 3, entry.RecordsFetched)
	require.NotNil(t, entry.ErrorDetails)
	assert.Equal(t, "source unavailable", *entry.ErrorDetails)
}

func TestListReturnsNewestFirst(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first, err := repo.StartUnit(ctx, "characters")
	require.NoError(t, err)
	second, err := repo.StartUnit(ctx, "elements")
	require.NoError(t, err)

	entries, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0].ID)
	assert.Equal(t, first, entries[1].ID)

	entries, err = repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].ID)
}
