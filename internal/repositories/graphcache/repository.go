package graphcache

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
)

// Repository handles the cached_journey_graph table. Rows are written by
// the presentation layer; the sync pipeline only evicts them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert stores or replaces one cached graph, keyed by character.
func (r *Repository) Insert(ctx context.Context, characterID, graphData string, cachedAt time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "graphcache.Repository.Insert")
	defer span.End()

	query := `INSERT INTO cached_journey_graph (character_id, graph_data, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT (character_id) DO UPDATE SET graph_data = excluded.graph_data, cached_at = excluded.cached_at`
	if _, err := r.db.ExecContext(ctx, query, characterID, graphData, cachedAt); err != nil {
		return fmt.Errorf("failed to cache graph for character %s: %w", characterID, err)
	}
	return nil
}

// DeleteAll evicts every cached graph and returns how many went.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "graphcache.Repository.DeleteAll")
	defer span.End()

	res, err := r.db.ExecContext(ctx, "DELETE FROM cached_journey_graph")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cached graphs: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteOlderThan evicts cached graphs older than the given age.
func (r *Repository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "graphcache.Repository.DeleteOlderThan")
	defer span.End()

	cutoff := time.Now().UTC().Add(-age)
	res, err := r.db.ExecContext(ctx, "DELETE FROM cached_journey_graph WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale cached graphs: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Count returns the number of cached graphs.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "graphcache.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cached_journey_graph"); err != nil {
		return 0, fmt.Errorf("failed to count cached graphs: %w", err)
	}
	return count, nil
}
