// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/logging"
)

// NewTestDB opens a migrated in-memory store. The pool is pinned to one
// connection so every query sees the same in-memory database.
func NewTestDB(t *testing.T) database.DB {
	t.Helper()

	sqlxDB, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	sqlxDB.SetMaxOpenConns(1)

	logger := logging.NewNop()
	require.NoError(t, database.Migrate(sqlxDB, logger))

	db := database.NewDatabaseInstance(sqlxDB, logger)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
