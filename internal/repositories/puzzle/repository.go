package puzzle

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

var columns = []string{
	"id", "name", "timing", "owner_id", "locked_item_id",
	"reward_ids", "puzzle_element_ids", "story_reveals",
	"narrative_threads", "resolution_paths",
}

// Repository handles the puzzles table.
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

func (r *Repository) InsertTx(ctx context.Context, tx database.Tx, p *models.Puzzle) error {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.InsertTx")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("puzzles")
	ib.Cols(columns...)
	ib.Values(
		p.ID, p.Name, p.Timing, p.OwnerID, p.LockedItemID,
		p.RewardIDs, p.PuzzleElementIDs, p.StoryReveals,
		p.NarrativeThreads, p.ResolutionPaths,
	)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert puzzle %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) DeleteAllTx(ctx context.Context, tx database.Tx) error {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.DeleteAllTx")
	defer span.End()

	if _, err := tx.ExecContext(ctx, "DELETE FROM puzzles"); err != nil {
		return fmt.Errorf("failed to clear puzzles: %w", err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM puzzles"); err != nil {
		return 0, fmt.Errorf("failed to count puzzles: %w", err)
	}
	return count, nil
}

func (r *Repository) GetIDs(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.GetIDs")
	defer span.End()

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM puzzles ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("failed to get puzzle ids: %w", err)
	}
	return ids, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]models.Puzzle, error) {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.GetAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("puzzles")
	sb.OrderBy("rowid")

	query, args := sb.Build()
	var puzzles []models.Puzzle
	if err := r.db.SelectContext(ctx, &puzzles, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list puzzles")
		return nil, fmt.Errorf("failed to list puzzles: %w", err)
	}
	return puzzles, nil
}

// HealReferencesTx nulls out owner and locked-item references that do not
// resolve to rows synced in this run.
func (r *Repository) HealReferencesTx(ctx context.Context, tx database.Tx) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.HealReferencesTx")
	defer span.End()

	var healed int64
	statements := []string{
		"UPDATE puzzles SET owner_id = NULL WHERE owner_id IS NOT NULL AND owner_id NOT IN (SELECT id FROM characters)",
		"UPDATE puzzles SET locked_item_id = NULL WHERE locked_item_id IS NOT NULL AND locked_item_id NOT IN (SELECT id FROM elements)",
	}
	for _, stmt := range statements {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return healed, fmt.Errorf("failed to heal puzzle references: %w", err)
		}
		rows, _ := res.RowsAffected()
		healed += rows
	}
	return healed, nil
}

// UpdateNarrativeThreadsTx writes the derived narrative threads for one puzzle.
func (r *Repository) UpdateNarrativeThreadsTx(ctx context.Context, tx database.Tx, id string, threads models.StringList) error {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.UpdateNarrativeThreadsTx")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("puzzles")
	ub.Set(ub.Assign("narrative_threads", threads))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update narrative threads for puzzle %s: %w", id, err)
	}
	return nil
}

// UpdateResolutionPathsTx writes the derived resolution paths for one puzzle.
func (r *Repository) UpdateResolutionPathsTx(ctx context.Context, tx database.Tx, id string, paths models.StringList) error {
	ctx, span := tracing.StartSpan(ctx, "puzzle.Repository.UpdateResolutionPathsTx")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("puzzles")
	ub.Set(ub.Assign("resolution_paths", paths))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update resolution paths for puzzle %s: %w", id, err)
	}
	return nil
}
