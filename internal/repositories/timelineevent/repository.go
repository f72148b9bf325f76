package timelineevent

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

var columns = []string{"id", "description", "date", "character_ids", "element_ids", "notes", "act_focus"}

// Repository handles the timeline_events table.
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

func (r *Repository) InsertTx(ctx context.Context, tx database.Tx, e *models.TimelineEvent) error {
	ctx, span := tracing.StartSpan(ctx, "timelineevent.Repository.InsertTx")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("timeline_events")
	ib.Cols(columns...)
	ib.Values(e.ID, e.Description, e.Date, e.CharacterIDs, e.ElementIDs, e.Notes, e.ActFocus)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert timeline event %s: %w", e.ID, err)
	}
	return nil
}

func (r *Repository) DeleteAllTx(ctx context.Context, tx database.Tx) error {
	ctx, span := tracing.StartSpan(ctx, "timelineevent.Repository.DeleteAllTx")
	defer span.End()

	if _, err := tx.ExecContext(ctx, "DELETE FROM timeline_events"); err != nil {
		return fmt.Errorf("failed to clear timeline events: %w", err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "timelineevent.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM timeline_events"); err != nil {
		return 0, fmt.Errorf("failed to count timeline events: %w", err)
	}
	return count, nil
}

func (r *Repository) GetIDs(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "timelineevent.Repository.GetIDs")
	defer span.End()

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM timeline_events ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("failed to get timeline event ids: %w", err)
	}
	return ids, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]models.TimelineEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "timelineevent.Repository.GetAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("timeline_events")
	sb.OrderBy("rowid")

	query, args := sb.Build()
	var events []models.TimelineEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list timeline events")
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	return events, nil
}

// UpdateActFocusTx writes the derived act focus. A nil focus clears it.
func (r *Repository) UpdateActFocusTx(ctx context.Context, tx database.Tx, id string, focus *string) error {
	ctx, span := tracing.StartSpan(ctx, "timelineevent.Repository.UpdateActFocusTx")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("timeline_events")
	ub.Set(ub.Assign("act_focus", focus))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update act focus for timeline event %s: %w", id, err)
	}
	return nil
}
