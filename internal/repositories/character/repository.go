package character

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

var columns = []string{"id", "name", "type", "tier", "logline", "connections", "resolution_paths"}

// Repository handles the characters table.
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

// InsertTx inserts one character row inside the caller's transaction.
func (r *Repository) InsertTx(ctx context.Context, tx database.Tx, c *models.Character) error {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.InsertTx")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("characters")
	ib.Cols(columns...)
	ib.Values(c.ID, c.Name, c.Type, c.Tier, c.Logline, c.Connections, c.ResolutionPaths)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert character %s: %w", c.ID, err)
	}
	return nil
}

// DeleteAllTx clears the characters table for a replace-all sync.
func (r *Repository) DeleteAllTx(ctx context.Context, tx database.Tx) error {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.DeleteAllTx")
	defer span.End()

	if _, err := tx.ExecContext(ctx, "DELETE FROM characters"); err != nil {
		return fmt.Errorf("failed to clear characters: %w", err)
	}
	return nil
}

// Count returns the number of character rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM characters"); err != nil {
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return count, nil
}

// GetIDs returns all character IDs, used for reference validation.
func (r *Repository) GetIDs(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.GetIDs")
	defer span.End()

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM characters ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("failed to get character ids: %w", err)
	}
	return ids, nil
}

// GetAll returns all characters in insertion order.
func (r *Repository) GetAll(ctx context.Context) ([]models.Character, error) {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.GetAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("characters")
	sb.OrderBy("rowid")

	query, args := sb.Build()
	var characters []models.Character
	if err := r.db.SelectContext(ctx, &characters, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list characters")
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

// UpdateConnectionsTx writes the connection count computed from the
// character links.
func (r *Repository) UpdateConnectionsTx(ctx context.Context, tx database.Tx, id string, connections int) error {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.UpdateConnectionsTx")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("characters")
	ub.Set(ub.Assign("connections", connections))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update connections for character %s: %w", id, err)
	}
	return nil
}

// UpdateResolutionPathsTx writes the derived resolution paths for one
// character inside the derived-field transaction.
func (r *Repository) UpdateResolutionPathsTx(ctx context.Context, tx database.Tx, id string, paths models.StringList) error {
	ctx, span := tracing.StartSpan(ctx, "character.Repository.UpdateResolutionPathsTx")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("characters")
	ub.Set(ub.Assign("resolution_paths", paths))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update resolution paths for character %s: %w", id, err)
	}
	return nil
}
