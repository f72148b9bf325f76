package element

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

var columns = []string{
	"id", "name", "type", "description", "status",
	"owner_id", "container_id", "timeline_event_id",
	"first_available", "narrative_threads", "resolution_paths",
}

// Repository handles the elements table.
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

func (r *Repository) InsertTx(ctx context.Context, tx database.Tx, e *models.Element) error {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.InsertTx")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("elements")
	ib.Cols(columns...)
	ib.Values(
		e.ID, e.Name, e.Type, e.Description, e.Status,
		e.OwnerID, e.ContainerID, e.TimelineEventID,
		e.FirstAvailable, e.NarrativeThreads, e.ResolutionPaths,
	)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert element %s: %w", e.ID, err)
	}
	return nil
}

func (r *Repository) DeleteAllTx(ctx context.Context, tx database.Tx) error {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.DeleteAllTx")
	defer span.End()

	if _, err := tx.ExecContext(ctx, "DELETE FROM elements"); err != nil {
		return fmt.Errorf("failed to clear elements: %w", err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM elements"); err != nil {
		return 0, fmt.Errorf("failed to count elements: %w", err)
	}
	return count, nil
}

func (r *Repository) GetIDs(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.GetIDs")
	defer span.End()

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM elements ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("failed to get element ids: %w", err)
	}
	return ids, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]models.Element, error) {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.GetAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("elements")
	sb.OrderBy("rowid")

	query, args := sb.Build()
	var elements []models.Element
	if err := r.db.SelectContext(ctx, &elements, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list elements")
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}
	return elements, nil
}

// HealReferencesTx nulls out owner, container and originating-event
// references that do not resolve to rows synced in this run. Dangling
// references are healed, never allowed to violate integrity.
func (r *Repository) HealReferencesTx(ctx context.Context, tx database.Tx) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.HealReferencesTx")
	defer span.End()

	var healed int64
	statements := []string{
		"UPDATE elements SET owner_id = NULL WHERE owner_id IS NOT NULL AND owner_id NOT IN (SELECT id FROM characters)",
		"UPDATE elements SET container_id = NULL WHERE container_id IS NOT NULL AND container_id NOT IN (SELECT id FROM elements)",
		"UPDATE elements SET timeline_event_id = NULL WHERE timeline_event_id IS NOT NULL AND timeline_event_id NOT IN (SELECT id FROM timeline_events)",
	}
	for _, stmt := range statements {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return healed, fmt.Errorf("failed to heal element references: %w", err)
		}
		rows, _ := res.RowsAffected()
		healed += rows
	}
	return healed, nil
}

// BreakContainerCyclesTx detects containment cycles and breaks them by
// nulling the container reference of the first element found inside a
// cycle. Well-formed data has none; this is the defensive path.
func (r *Repository) BreakContainerCyclesTx(ctx context.Context, tx database.Tx) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.BreakContainerCyclesTx")
	defer span.End()

	var pairs []struct {
		ID          string  `db:"id"`
		ContainerID *string `db:"container_id"`
	}
	if err := tx.SelectContext(ctx, &pairs, "SELECT id, container_id FROM elements WHERE container_id IS NOT NULL ORDER BY rowid"); err != nil {
		return 0, fmt.Errorf("failed to load containment edges: %w", err)
	}

	parent := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.ContainerID != nil {
			parent[p.ID] = *p.ContainerID
		}
	}

	var broken int64
	state := make(map[string]int, len(parent)) // 0 unvisited, 1 in progress, 2 done
	for _, p := range pairs {
		id := p.ID
		if state[id] != 0 {
			continue
		}
		path := []string{}
		cur := id
		for {
			if state[cur] == 2 {
				break
			}
			if state[cur] == 1 {
				// cur is inside a cycle; break the edge out of it
				if _, err := tx.ExecContext(ctx, "UPDATE elements SET container_id = NULL WHERE id = ?", cur); err != nil {
					return broken, fmt.Errorf("failed to break containment cycle at %s: %w", cur, err)
				}
				r.logger.WithContext(ctx).WithField("element_id", cur).Warn("Broke element containment cycle")
				delete(parent, cur)
				broken++
				break
			}
			state[cur] = 1
			path = append(path, cur)
			next, ok := parent[cur]
			if !ok {
				break
			}
			cur = next
		}
		for _, n := range path {
			state[n] = 2
		}
	}
	return broken, nil
}

// UpdateResolutionPathsTx writes the derived resolution paths for one element.
func (r *Repository) UpdateResolutionPathsTx(ctx context.Context, tx database.Tx, id string, paths models.StringList) error {
	ctx, span := tracing.StartSpan(ctx, "element.Repository.UpdateResolutionPathsTx")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("elements")
	ub.Set(ub.Assign("resolution_paths", paths))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update resolution paths for element %s: %w", id, err)
	}
	return nil
}
