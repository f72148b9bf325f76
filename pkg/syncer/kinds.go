package syncer

import (
	"context"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/repositories/character"
	"github.com/Ramsey-B/fern/internal/repositories/element"
	"github.com/Ramsey-B/fern/internal/repositories/puzzle"
	"github.com/Ramsey-B/fern/internal/repositories/timelineevent"
	"github.com/Ramsey-B/fern/pkg/mapper"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/source"
)

// CharacterSyncer syncs character rows. Relationship lists on the documents
// are handled later by the relationship phase.
type CharacterSyncer struct {
	source source.Source
	mapper *mapper.Mapper
	repo   *character.Repository
}

func NewCharacterSyncer(src source.Source, m *mapper.Mapper, repo *character.Repository) *CharacterSyncer {
	return &CharacterSyncer{source: src, mapper: m, repo: repo}
}

func (s *CharacterSyncer) Kind() models.EntityKind { return models.KindCharacter }

func (s *CharacterSyncer) Fetch(ctx context.Context) ([]source.Record, error) {
	return s.source.FetchAll(ctx, models.KindCharacter)
}

func (s *CharacterSyncer) CountExisting(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *CharacterSyncer) ClearExistingTx(ctx context.Context, tx database.Tx) error {
	return s.repo.DeleteAllTx(ctx, tx)
}

func (s *CharacterSyncer) MapRecord(ctx context.Context, rec source.Record) (*models.Character, error) {
	return s.mapper.MapCharacter(ctx, rec)
}

func (s *CharacterSyncer) InsertTx(ctx context.Context, tx database.Tx, row *models.Character) error {
	return s.repo.InsertTx(ctx, tx, row)
}

func (s *CharacterSyncer) PostProcessTx(context.Context, database.Tx) error { return nil }

// TimelineEventSyncer syncs timeline event rows. Act focus stays unset
// until the derived-field phase computes it.
type TimelineEventSyncer struct {
	source source.Source
	mapper *mapper.Mapper
	repo   *timelineevent.Repository
}

func NewTimelineEventSyncer(src source.Source, m *mapper.Mapper, repo *timelineevent.Repository) *TimelineEventSyncer {
	return &TimelineEventSyncer{source: src, mapper: m, repo: repo}
}

func (s *TimelineEventSyncer) Kind() models.EntityKind { return models.KindTimelineEvent }

func (s *TimelineEventSyncer) Fetch(ctx context.Context) ([]source.Record, error) {
	return s.source.FetchAll(ctx, models.KindTimelineEvent)
}

func (s *TimelineEventSyncer) CountExisting(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *TimelineEventSyncer) ClearExistingTx(ctx context.Context, tx database.Tx) error {
	return s.repo.DeleteAllTx(ctx, tx)
}

func (s *TimelineEventSyncer) MapRecord(ctx context.Context, rec source.Record) (*models.TimelineEvent, error) {
	return s.mapper.MapTimelineEvent(ctx, rec)
}

func (s *TimelineEventSyncer) InsertTx(ctx context.Context, tx database.Tx, row *models.TimelineEvent) error {
	return s.repo.InsertTx(ctx, tx, row)
}

func (s *TimelineEventSyncer) PostProcessTx(context.Context, database.Tx) error { return nil }

// ElementSyncer syncs element rows, then heals references that failed to
// resolve within the run and breaks any containment cycles.
type ElementSyncer struct {
	source source.Source
	mapper *mapper.Mapper
	repo   *element.Repository
}

func NewElementSyncer(src source.Source, m *mapper.Mapper, repo *element.Repository) *ElementSyncer {
	return &ElementSyncer{source: src, mapper: m, repo: repo}
}

func (s *ElementSyncer) Kind() models.EntityKind { return models.KindElement }

func (s *ElementSyncer) Fetch(ctx context.Context) ([]source.Record, error) {
	return s.source.FetchAll(ctx, models.KindElement)
}

func (s *ElementSyncer) CountExisting(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *ElementSyncer) ClearExistingTx(ctx context.Context, tx database.Tx) error {
	return s.repo.DeleteAllTx(ctx, tx)
}

func (s *ElementSyncer) MapRecord(ctx context.Context, rec source.Record) (*models.Element, error) {
	return s.mapper.MapElement(ctx, rec)
}

func (s *ElementSyncer) InsertTx(ctx context.Context, tx database.Tx, row *models.Element) error {
	return s.repo.InsertTx(ctx, tx, row)
}

func (s *ElementSyncer) PostProcessTx(ctx context.Context, tx database.Tx) error {
	if _, err := s.repo.HealReferencesTx(ctx, tx); err != nil {
		return err
	}
	_, err := s.repo.BreakContainerCyclesTx(ctx, tx)
	return err
}

// PuzzleSyncer syncs puzzle rows, then heals owner and locked-item
// references.
type PuzzleSyncer struct {
	source source.Source
	mapper *mapper.Mapper
	repo   *puzzle.Repository
}

func NewPuzzleSyncer(src source.Source, m *mapper.Mapper, repo *puzzle.Repository) *PuzzleSyncer {
	return &PuzzleSyncer{source: src, mapper: m, repo: repo}
}

func (s *PuzzleSyncer) Kind() models.EntityKind { return models.KindPuzzle }

func (s *PuzzleSyncer) Fetch(ctx context.Context) ([]source.Record, error) {
	return s.source.FetchAll(ctx, models.KindPuzzle)
}

func (s *PuzzleSyncer) CountExisting(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *PuzzleSyncer) ClearExistingTx(ctx context.Context, tx database.Tx) error {
	return s.repo.DeleteAllTx(ctx, tx)
}

func (s *PuzzleSyncer) MapRecord(ctx context.Context, rec source.Record) (*models.Puzzle, error) {
	return s.mapper.MapPuzzle(ctx, rec)
}

func (s *PuzzleSyncer) InsertTx(ctx context.Context, tx database.Tx, row *models.Puzzle) error {
	return s.repo.InsertTx(ctx, tx, row)
}

func (s *PuzzleSyncer) PostProcessTx(ctx context.Context, tx database.Tx) error {
	_, err := s.repo.HealReferencesTx(ctx, tx)
	return err
}
