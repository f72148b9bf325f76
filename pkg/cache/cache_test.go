package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/logging"
	graphcacherepo "github.com/Ramsey-B/fern/internal/repositories/graphcache"
	"github.com/Ramsey-B/fern/internal/testutil"
)

func newInvalidator(t *testing.T) (*Invalidator, *graphcacherepo.Repository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	repo := graphcacherepo.NewRepository(db, logging.NewNop())
	return NewInvalidator(repo, logging.NewNop()), repo
}

func TestInvalidateAll(t *testing.T) {
	inv, repo := newInvalidator(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "char-1", `{"nodes":[]}`, time.Now().UTC()))
	require.NoError(t, repo.Insert(ctx, "char-2", `{"nodes":[]}`, time.Now().UTC()))

	result, err := inv.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Evicted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// empty cache evicts nothing
	result, err = inv.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Evicted)
}

func TestPurgeOlderThan(t *testing.T) {
	inv, repo := newInvalidator(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "char-old", `{}`, time.Now().UTC().Add(-48*time.Hour)))
	require.NoError(t, repo.Insert(ctx, "char-new", `{}`, time.Now().UTC()))

	result, err := inv.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Evicted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertReplacesExistingGraph(t *testing.T) {
	_, repo := newInvalidator(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "char-1", `{"v":1}`, time.Now().UTC()))
	require.NoError(t, repo.Insert(ctx, "char-1", `{"v":2}`, time.Now().UTC()))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
