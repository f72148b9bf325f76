// Package mapper converts raw source records into local row shapes. Each
// Map function either returns a fully-formed row or an error; the sync
// driver decides whether an error skips the item or aborts the run.
package mapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/source"
)

// Mapper converts raw records. The source is only consulted for
// cross-record name lookups (e.g. naming a locked item in story reveals).
type Mapper struct {
	source source.Source
}

func New(src source.Source) *Mapper {
	return &Mapper{source: src}
}

// MapCharacter maps a raw character document to a characters row.
func (m *Mapper) MapCharacter(_ context.Context, rec source.Record) (*models.Character, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("character record missing id")
	}
	name := getString(rec.Data, "name")
	if name == "" {
		return nil, fmt.Errorf("character %s missing name", rec.ID)
	}

	return &models.Character{
		ID:          rec.ID,
		Name:        name,
		Type:        getString(rec.Data, "type"),
		Tier:        getString(rec.Data, "tier"),
		Logline:     getString(rec.Data, "logline"),
		Connections: getInt(rec.Data, "connections"),
	}, nil
}

// MapCharacterRelationships extracts the relation ID lists carried on a
// character document. Missing lists are empty, never an error.
func (m *Mapper) MapCharacterRelationships(rec source.Record) models.CharacterRelationships {
	return models.CharacterRelationships{
		CharacterID:          rec.ID,
		TimelineEventIDs:     getStringSlice(rec.Data, "events"),
		OwnedElementIDs:      getStringSlice(rec.Data, "owned_elements"),
		AssociatedElementIDs: getStringSlice(rec.Data, "associated_elements"),
		PuzzleIDs:            getStringSlice(rec.Data, "character_puzzles"),
	}
}

// MapTimelineEvent maps a raw timeline event document.
func (m *Mapper) MapTimelineEvent(_ context.Context, rec source.Record) (*models.TimelineEvent, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("timeline event record missing id")
	}
	description := getString(rec.Data, "description")
	if description == "" {
		return nil, fmt.Errorf("timeline event %s missing description", rec.ID)
	}

	return &models.TimelineEvent{
		ID:           rec.ID,
		Description:  description,
		Date:         getString(rec.Data, "date"),
		CharacterIDs: getStringSlice(rec.Data, "characters_involved"),
		ElementIDs:   getStringSlice(rec.Data, "memory_evidence"),
		Notes:        getString(rec.Data, "notes"),
	}, nil
}

// MapElement maps a raw element document. Reference fields keep whatever
// IDs the source carries; the syncer nulls out references that fail to
// resolve within the run.
func (m *Mapper) MapElement(_ context.Context, rec source.Record) (*models.Element, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("element record missing id")
	}
	name := getString(rec.Data, "name")
	if name == "" {
		return nil, fmt.Errorf("element %s missing name", rec.ID)
	}

	return &models.Element{
		ID:               rec.ID,
		Name:             name,
		Type:             getString(rec.Data, "type"),
		Description:      getString(rec.Data, "description"),
		Status:           getString(rec.Data, "status"),
		OwnerID:          getOptionalID(rec.Data, "owner"),
		ContainerID:      getOptionalID(rec.Data, "container"),
		TimelineEventID:  getOptionalID(rec.Data, "timeline_event"),
		FirstAvailable:   getString(rec.Data, "first_available"),
		NarrativeThreads: getStringSlice(rec.Data, "narrative_threads"),
	}, nil
}

// MapPuzzle maps a raw puzzle document. The story-reveal text gets related
// element names resolved through the source when the document references
// them by ID only.
func (m *Mapper) MapPuzzle(ctx context.Context, rec source.Record) (*models.Puzzle, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("puzzle record missing id")
	}
	name := getString(rec.Data, "name")
	if name == "" {
		return nil, fmt.Errorf("puzzle %s missing name", rec.ID)
	}

	puzzle := &models.Puzzle{
		ID:               rec.ID,
		Name:             name,
		Timing:           getString(rec.Data, "timing"),
		OwnerID:          getOptionalID(rec.Data, "owner"),
		LockedItemID:     getOptionalID(rec.Data, "locked_item"),
		RewardIDs:        getStringSlice(rec.Data, "rewards"),
		PuzzleElementIDs: getStringSlice(rec.Data, "puzzle_elements"),
		StoryReveals:     getString(rec.Data, "story_reveals"),
	}

	if puzzle.StoryReveals == "" && puzzle.LockedItemID != nil && m.source != nil {
		if itemName, ok := m.source.LookupName(ctx, models.KindElement, *puzzle.LockedItemID); ok {
			puzzle.StoryReveals = fmt.Sprintf("Unlocks %s", itemName)
		}
	}

	return puzzle, nil
}

func getString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func getInt(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func getStringSlice(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

func getOptionalID(data map[string]any, key string) *string {
	if s := getString(data, key); s != "" {
		return &s
	}
	return nil
}
