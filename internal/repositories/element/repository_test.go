package element

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/logging"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/models"
)

func strPtr(s string) *string { return &s }

func seed(t *testing.T, db database.DB, query string, args ...any) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func TestHealReferencesTx(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRepository(db, logging.NewNop())
	ctx := context.Background()

	seed(t, db, "INSERT INTO characters (id, name) VALUES ('char-1', 'Howie')")
	seed(t, db, "INSERT INTO timeline_events (id, description) VALUES ('ev-1', 'The fire')")

	txCtx, tx, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{
		ID: "el-1", Name: "Rusted key",
		OwnerID:         strPtr("char-1"),
		TimelineEventID: strPtr("ev-1"),
	}))
	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{
		ID: "el-2", Name: "Torn photo",
		OwnerID:         strPtr("char-404"),
		ContainerID:     strPtr("el-404"),
		TimelineEventID: strPtr("ev-404"),
	}))

	healed, err := repo.HealReferencesTx(txCtx, tx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), healed)
	require.NoError(t, tx.Commit(ctx))

	elements, err := repo.GetAll(ctx)
	require.NoError(t, err)
	byID := map[string]models.Element{}
	for _, el := range elements {
		byID[el.ID] = el
	}

	// valid references survive
	require.NotNil(t, byID["el-1"].OwnerID)
	assert.Equal(t, "char-1", *byID["el-1"].OwnerID)

	// dangling references are nulled
	assert.Nil(t, byID["el-2"].OwnerID)
	assert.Nil(t, byID["el-2"].ContainerID)
	assert.Nil(t, byID["el-2"].TimelineEventID)
}

func TestBreakContainerCyclesTx(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRepository(db, logging.NewNop())
	ctx := context.Background()

	txCtx, tx, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	// el-1 -> el-2 -> el-1 cycle, el-3 -> el-1 chain into it
	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{ID: "el-1", Name: "a", ContainerID: strPtr("el-2")}))
	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{ID: "el-2", Name: "b", ContainerID: strPtr("el-1")}))
	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{ID: "el-3", Name: "c", ContainerID: strPtr("el-1")}))

	broken, err := repo.BreakContainerCyclesTx(txCtx, tx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), broken)
	require.NoError(t, tx.Commit(ctx))

	elements, err := repo.GetAll(ctx)
	require.NoError(t, err)

	withContainer := 0
	for _, el := range elements {
		if el.ContainerID != nil {
			withContainer++
		}
	}
	// exactly one containment edge removed
	assert.Equal(t, 2, withContainer)
}

func TestBreakContainerCyclesTxLeavesChainsAlone(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRepository(db, logging.NewNop())
	ctx := context.Background()

	txCtx, tx, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{ID: "el-1", Name: "a"}))
	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{ID: "el-2", Name: "b", ContainerID: strPtr("el-1")}))
	require.NoError(t, repo.InsertTx(txCtx, tx, &models.Element{ID: "el-3", Name: "c", ContainerID: strPtr("el-2")}))

	broken, err := repo.BreakContainerCyclesTx(txCtx, tx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), broken)
	require.NoError(t, tx.Commit(ctx))
}
