package synclog

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

var columns = []string{
	"id", "start_time", "end_time", "status", "entity_type",
	"records_fetched", "records_synced", "errors", "error_details",
}

// Repository handles the append-only sync_log table. Rows are written
// at unit start and updated exactly once at completion or failure; no
// delete path exists.
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

// StartUnit records the beginning of one sync unit and returns its log ID.
func (r *Repository) StartUnit(ctx context.Context, entityType string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "synclog.Repository.StartUnit")
	defer span.End()

	id := uuid.NewString()

	ib := database.NewInsertBuilder()
	ib.InsertInto("sync_log")
	ib.Cols("id", "start_time", "status", "entity_type")
	ib.Values(id, time.Now().UTC(), models.SyncStatusStarted, entityType)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to start sync log unit for %s: %w", entityType, err)
	}
	return id, nil
}

// CompleteUnit closes a sync unit with its final counters.
func (r *Repository) CompleteUnit(ctx context.Context, id string, stats models.SyncStats) error {
	ctx, span := tracing.StartSpan(ctx, "synclog.Repository.CompleteUnit")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("sync_log")
	ub.Set(
		ub.Assign("end_time", time.Now().UTC()),
		ub.Assign("status", models.SyncStatusCompleted),
		ub.Assign("records_fetched", stats.Fetched),
		ub.Assign("records_synced", stats.Synced),
		ub.Assign("errors", stats.Errors),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to complete sync log unit %s: %w", id, err)
	}
	return nil
}

// FailUnit closes a sync unit as failed, keeping whatever counters were
// reached and the failure detail.
func (r *Repository) FailUnit(ctx context.Context, id string, stats models.SyncStats, detail string) error {
	ctx, span := tracing.StartSpan(ctx, "synclog.Repository.FailUnit")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("sync_log")
	ub.Set(
		ub.Assign("end_time", time.Now().UTC()),
		ub.Assign("status", models.SyncStatusFailed),
		ub.Assign("records_fetched", stats.Fetched),
		ub.Assign("records_synced", stats.Synced),
		ub.Assign("errors", stats.Errors),
		ub.Assign("error_details", detail),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to fail sync log unit %s: %w", id, err)
	}
	return nil
}

// List returns the most recent sync log entries, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "synclog.Repository.List")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("sync_log")
	sb.OrderBy("start_time DESC, rowid DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var entries []models.SyncLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list sync log")
		return nil, fmt.Errorf("failed to list sync log: %w", err)
	}
	return entries, nil
}

// Get returns one sync log entry by ID.
func (r *Repository) Get(ctx context.Context, id string) (*models.SyncLogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "synclog.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("sync_log")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var entry models.SyncLogEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get sync log entry %s: %w", id, err)
	}
	return &entry, nil
}
