package relationship

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

// joinTables lists the character join tables in clear order. Links go
// first so nothing references a pair row mid-clear.
var joinTables = []string{
	"character_links",
	"character_timeline_events",
	"character_owned_elements",
	"character_associated_elements",
	"character_puzzles",
}

// Repository handles the character join tables and computed links.
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

// ClearAllTx empties every join table ahead of a relationship rebuild.
func (r *Repository) ClearAllTx(ctx context.Context, tx database.Tx) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.ClearAllTx")
	defer span.End()

	for _, table := range joinTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (r *Repository) insertPairTx(ctx context.Context, tx database.Tx, table, col string, characterID, otherID string) error {
	ib := database.NewInsertBuilder()
	ib.InsertIgnoreInto(table)
	ib.Cols("character_id", col)
	ib.Values(characterID, otherID)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %s pair (%s, %s): %w", table, characterID, otherID, err)
	}
	return nil
}

func (r *Repository) InsertCharacterEventTx(ctx context.Context, tx database.Tx, characterID, eventID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.InsertCharacterEventTx")
	defer span.End()
	return r.insertPairTx(ctx, tx, "character_timeline_events", "timeline_event_id", characterID, eventID)
}

func (r *Repository) InsertCharacterOwnedElementTx(ctx context.Context, tx database.Tx, characterID, elementID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.InsertCharacterOwnedElementTx")
	defer span.End()
	return r.insertPairTx(ctx, tx, "character_owned_elements", "element_id", characterID, elementID)
}

func (r *Repository) InsertCharacterAssociatedElementTx(ctx context.Context, tx database.Tx, characterID, elementID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.InsertCharacterAssociatedElementTx")
	defer span.End()
	return r.insertPairTx(ctx, tx, "character_associated_elements", "element_id", characterID, elementID)
}

func (r *Repository) InsertCharacterPuzzleTx(ctx context.Context, tx database.Tx, characterID, puzzleID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.InsertCharacterPuzzleTx")
	defer span.End()
	return r.insertPairTx(ctx, tx, "character_puzzles", "puzzle_id", characterID, puzzleID)
}

// InsertLinkTx stores one computed character link. Pairs arrive in
// canonical order from the link computation.
func (r *Repository) InsertLinkTx(ctx context.Context, tx database.Tx, link *models.CharacterLink) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.InsertLinkTx")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("character_links")
	ib.Cols("character_a_id", "character_b_id", "link_type", "link_strength")
	ib.Values(link.CharacterAID, link.CharacterBID, link.LinkType, link.LinkStrength)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert character link (%s, %s): %w", link.CharacterAID, link.CharacterBID, err)
	}
	return nil
}

// CharacterArtifacts holds the per-character ID sets used by the link
// strength computation. Owned and associated elements are merged since
// either kind of tie counts for shared-element scoring.
type CharacterArtifacts struct {
	CharacterID string
	EventIDs    map[string]struct{}
	PuzzleIDs   map[string]struct{}
	ElementIDs  map[string]struct{}
}

// GetCharacterArtifactsTx loads every character's event, puzzle and element
// sets from the join tables, in character insertion order. It reads through
// the open transaction so link computation sees the rows written by the
// same rebuild.
func (r *Repository) GetCharacterArtifactsTx(ctx context.Context, tx database.Tx) ([]CharacterArtifacts, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.GetCharacterArtifactsTx")
	defer span.End()

	var ids []string
	if err := tx.SelectContext(ctx, &ids, "SELECT id FROM characters ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("failed to list characters for link computation: %w", err)
	}

	byID := make(map[string]*CharacterArtifacts, len(ids))
	out := make([]CharacterArtifacts, 0, len(ids))
	for _, id := range ids {
		byID[id] = &CharacterArtifacts{
			CharacterID: id,
			EventIDs:    map[string]struct{}{},
			PuzzleIDs:   map[string]struct{}{},
			ElementIDs:  map[string]struct{}{},
		}
	}

	type pair struct {
		CharacterID string `db:"character_id"`
		OtherID     string `db:"other_id"`
	}

	load := func(query string, assign func(a *CharacterArtifacts, otherID string)) error {
		var pairs []pair
		if err := tx.SelectContext(ctx, &pairs, query); err != nil {
			return err
		}
		for _, p := range pairs {
			if a, ok := byID[p.CharacterID]; ok {
				assign(a, p.OtherID)
			}
		}
		return nil
	}

	if err := load("SELECT character_id, timeline_event_id AS other_id FROM character_timeline_events", func(a *CharacterArtifacts, id string) {
		a.EventIDs[id] = struct{}{}
	}); err != nil {
		return nil, fmt.Errorf("failed to load character events: %w", err)
	}
	if err := load("SELECT character_id, puzzle_id AS other_id FROM character_puzzles", func(a *CharacterArtifacts, id string) {
		a.PuzzleIDs[id] = struct{}{}
	}); err != nil {
		return nil, fmt.Errorf("failed to load character puzzles: %w", err)
	}
	if err := load("SELECT character_id, element_id AS other_id FROM character_owned_elements", func(a *CharacterArtifacts, id string) {
		a.ElementIDs[id] = struct{}{}
	}); err != nil {
		return nil, fmt.Errorf("failed to load owned elements: %w", err)
	}
	if err := load("SELECT character_id, element_id AS other_id FROM character_associated_elements", func(a *CharacterArtifacts, id string) {
		a.ElementIDs[id] = struct{}{}
	}); err != nil {
		return nil, fmt.Errorf("failed to load associated elements: %w", err)
	}

	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out, nil
}

// GetLinks returns all computed links ordered by pair.
func (r *Repository) GetLinks(ctx context.Context) ([]models.CharacterLink, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.GetLinks")
	defer span.End()

	var links []models.CharacterLink
	query := "SELECT character_a_id, character_b_id, link_type, link_strength FROM character_links ORDER BY character_a_id, character_b_id"
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("failed to list character links: %w", err)
	}
	return links, nil
}

// CountTable returns the row count of one join table. Table names come
// from callers inside the package boundary, never user input.
func (r *Repository) CountTable(ctx context.Context, table string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.CountTable")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}
