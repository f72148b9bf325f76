// Package relationships rebuilds the character join tables from the
// source documents and computes weighted character-to-character links.
// The whole rebuild runs in one transaction: either every join table
// reflects the new sync or none do.
package relationships

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/repositories/character"
	"github.com/Ramsey-B/fern/internal/repositories/element"
	"github.com/Ramsey-B/fern/internal/repositories/puzzle"
	"github.com/Ramsey-B/fern/internal/repositories/relationship"
	"github.com/Ramsey-B/fern/internal/repositories/timelineevent"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/mapper"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/source"
)

// Weights scores one shared artifact of each kind when linking two
// characters. Totals cap at models.MaxLinkStrength.
type Weights struct {
	Event   int
	Puzzle  int
	Element int
}

// DefaultWeights matches the scoring the journey graph expects.
var DefaultWeights = Weights{Event: 30, Puzzle: 20, Element: 10}

// Result reports one relationship rebuild.
type Result struct {
	CharacterEvents     int `json:"character_events"`
	OwnedElements       int `json:"owned_elements"`
	AssociatedElements  int `json:"associated_elements"`
	CharacterPuzzles    int `json:"character_puzzles"`
	LinksComputed       int `json:"links_computed"`
	SkippedReferences   int `json:"skipped_references"`
	CharactersProcessed int `json:"characters_processed"`
}

// Syncer rebuilds join tables and links.
type Syncer struct {
	db         database.DB
	source     source.Source
	mapper     *mapper.Mapper
	rels       *relationship.Repository
	characters *character.Repository
	events     *timelineevent.Repository
	elements   *element.Repository
	puzzles    *puzzle.Repository
	weights    Weights
	logger     ectologger.Logger
}

func NewSyncer(
	db database.DB,
	src source.Source,
	m *mapper.Mapper,
	rels *relationship.Repository,
	characters *character.Repository,
	events *timelineevent.Repository,
	elements *element.Repository,
	puzzles *puzzle.Repository,
	weights Weights,
	logger ectologger.Logger,
) *Syncer {
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	return &Syncer{
		db:         db,
		source:     src,
		mapper:     m,
		rels:       rels,
		characters: characters,
		events:     events,
		elements:   elements,
		puzzles:    puzzles,
		weights:    weights,
		logger:     logger,
	}
}

// Run rebuilds every join table from the source documents, then computes
// character links from the rebuilt tables. References to rows that did not
// survive the entity sync are skipped, never inserted.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Syncer.Run")
	defer span.End()

	refs, err := s.loadReferenceSets(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.source.FetchAll(ctx, models.KindCharacter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch characters for relationship sync: %w", err)
	}

	result := &Result{}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.rels.ClearAllTx(txCtx, tx); err != nil {
		return nil, err
	}

	for _, rec := range records {
		if _, ok := refs.characters[rec.ID]; !ok {
			// the character itself was skipped during entity sync
			result.SkippedReferences++
			continue
		}
		rel := s.mapper.MapCharacterRelationships(rec)
		if err := s.insertCharacterRelationships(txCtx, tx, rel, refs, result); err != nil {
			return nil, err
		}
		result.CharactersProcessed++
	}

	if err := s.computeLinksTx(txCtx, tx, result); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"characters_processed": result.CharactersProcessed,
		"links_computed":       result.LinksComputed,
		"skipped_references":   result.SkippedReferences,
	}).Info("Relationship sync completed")

	return result, nil
}

type referenceSets struct {
	characters map[string]struct{}
	events     map[string]struct{}
	elements   map[string]struct{}
	puzzles    map[string]struct{}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *Syncer) loadReferenceSets(ctx context.Context) (*referenceSets, error) {
	characterIDs, err := s.characters.GetIDs(ctx)
	if err != nil {
		return nil, err
	}
	eventIDs, err := s.events.GetIDs(ctx)
	if err != nil {
		return nil, err
	}
	elementIDs, err := s.elements.GetIDs(ctx)
	if err != nil {
		return nil, err
	}
	puzzleIDs, err := s.puzzles.GetIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &referenceSets{
		characters: toSet(characterIDs),
		events:     toSet(eventIDs),
		elements:   toSet(elementIDs),
		puzzles:    toSet(puzzleIDs),
	}, nil
}

func (s *Syncer) insertCharacterRelationships(ctx context.Context, tx database.Tx, rel models.CharacterRelationships, refs *referenceSets, result *Result) error {
	for _, eventID := range rel.TimelineEventIDs {
		if _, ok := refs.events[eventID]; !ok {
			result.SkippedReferences++
			continue
		}
		if err := s.rels.InsertCharacterEventTx(ctx, tx, rel.CharacterID, eventID); err != nil {
			return err
		}
		result.CharacterEvents++
	}
	for _, elementID := range rel.OwnedElementIDs {
		if _, ok := refs.elements[elementID]; !ok {
			result.SkippedReferences++
			continue
		}
		if err := s.rels.InsertCharacterOwnedElementTx(ctx, tx, rel.CharacterID, elementID); err != nil {
			return err
		}
		result.OwnedElements++
	}
	for _, elementID := range rel.AssociatedElementIDs {
		if _, ok := refs.elements[elementID]; !ok {
			result.SkippedReferences++
			continue
		}
		if err := s.rels.InsertCharacterAssociatedElementTx(ctx, tx, rel.CharacterID, elementID); err != nil {
			return err
		}
		result.AssociatedElements++
	}
	for _, puzzleID := range rel.PuzzleIDs {
		if _, ok := refs.puzzles[puzzleID]; !ok {
			result.SkippedReferences++
			continue
		}
		if err := s.rels.InsertCharacterPuzzleTx(ctx, tx, rel.CharacterID, puzzleID); err != nil {
			return err
		}
		result.CharacterPuzzles++
	}
	return nil
}

// computeLinksTx scores every character pair by shared artifacts. Pairs
// with no overlap produce no row. The stored pair is always in canonical
// order (smaller ID first) so (a, b) and (b, a) cannot both exist.
func (s *Syncer) computeLinksTx(ctx context.Context, tx database.Tx, result *Result) error {
	artifacts, err := s.rels.GetCharacterArtifactsTx(ctx, tx)
	if err != nil {
		return err
	}

	connections := make(map[string]int, len(artifacts))
	for i := 0; i < len(artifacts); i++ {
		for j := i + 1; j < len(artifacts); j++ {
			a, b := artifacts[i], artifacts[j]

			sharedEvents := intersectCount(a.EventIDs, b.EventIDs)
			sharedPuzzles := intersectCount(a.PuzzleIDs, b.PuzzleIDs)
			sharedElements := intersectCount(a.ElementIDs, b.ElementIDs)

			strength := sharedEvents*s.weights.Event +
				sharedPuzzles*s.weights.Puzzle +
				sharedElements*s.weights.Element
			if strength == 0 {
				continue
			}
			if strength > models.MaxLinkStrength {
				strength = models.MaxLinkStrength
			}

			aID, bID := a.CharacterID, b.CharacterID
			if bID < aID {
				aID, bID = bID, aID
			}
			link := &models.CharacterLink{
				CharacterAID: aID,
				CharacterBID: bID,
				LinkType:     linkType(sharedEvents, sharedPuzzles, sharedElements),
				LinkStrength: strength,
			}
			if err := s.rels.InsertLinkTx(ctx, tx, link); err != nil {
				return err
			}
			result.LinksComputed++
			connections[a.CharacterID]++
			connections[b.CharacterID]++
		}
	}

	for _, a := range artifacts {
		if err := s.characters.UpdateConnectionsTx(ctx, tx, a.CharacterID, connections[a.CharacterID]); err != nil {
			return err
		}
	}
	return nil
}

func intersectCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for id := range a {
		if _, ok := b[id]; ok {
			count++
		}
	}
	return count
}

func linkType(events, puzzles, elements int) string {
	kinds := 0
	linkType := models.LinkTypeMixed
	if events > 0 {
		kinds++
		linkType = models.LinkTypeTimelineEvent
	}
	if puzzles > 0 {
		kinds++
		linkType = models.LinkTypePuzzle
	}
	if elements > 0 {
		kinds++
		linkType = models.LinkTypeElement
	}
	if kinds > 1 {
		return models.LinkTypeMixed
	}
	return linkType
}
