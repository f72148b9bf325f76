package mapper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/source"
)

func TestMapCharacter(t *testing.T) {
	m := New(source.NewFake())

	t.Run("maps all fields", func(t *testing.T) {
		c, err := m.MapCharacter(context.Background(), source.Record{
			ID: "char-1",
			Data: map[string]any{
				"name":        "Howie Sullivan",
				"type":        "Player",
				"tier":        "Core",
				"logline":     "A lighthouse keeper with a secret",
				"connections": int64(3),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "char-1", c.ID)
		assert.Equal(t, "Howie Sullivan", c.Name)
		assert.Equal(t, "Player", c.Type)
		assert.Equal(t, "Core", c.Tier)
		assert.Equal(t, 3, c.Connections)
	})

	t.Run("missing name fails", func(t *testing.T) {
		_, err := m.MapCharacter(context.Background(), source.Record{
			ID:   "char-2",
			Data: map[string]any{"type": "NPC"},
		})
		assert.Error(t, err)
	})

	t.Run("missing id fails", func(t *testing.T) {
		_, err := m.MapCharacter(context.Background(), source.Record{
			Data: map[string]any{"name": "Nameless"},
		})
		assert.Error(t, err)
	})
}

func TestMapCharacterRelationships(t *testing.T) {
	m := New(source.NewFake())

	rel := m.MapCharacterRelationships(source.Record{
		ID: "char-1",
		Data: map[string]any{
			"events":              []any{"ev-1", "ev-2"},
			"owned_elements":      []any{"el-1"},
			"associated_elements": []any{"el-2", ""},
			"character_puzzles":   []string{"pz-1"},
		},
	})

	assert.Equal(t, "char-1", rel.CharacterID)
	assert.Equal(t, []string{"ev-1", "ev-2"}, rel.TimelineEventIDs)
	assert.Equal(t, []string{"el-1"}, rel.OwnedElementIDs)
	assert.Equal(t, []string{"el-2"}, rel.AssociatedElementIDs)
	assert.Equal(t, []string{"pz-1"}, rel.PuzzleIDs)
}

func TestMapTimelineEvent(t *testing.T) {
	m := New(source.NewFake())

	t.Run("maps all fields", func(t *testing.T) {
		ev, err := m.MapTimelineEvent(context.Background(), source.Record{
			ID: "ev-1",
			Data: map[string]any{
				"description":         "The warehouse fire",
				"date":                "1962-03-01",
				"characters_involved": []any{"char-1"},
				"memory_evidence":     []any{"el-1", "el-2"},
				"notes":               "act one inciting incident",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "The warehouse fire", ev.Description)
		assert.Equal(t, models.StringList{"char-1"}, ev.CharacterIDs)
		assert.Equal(t, models.StringList{"el-1", "el-2"}, ev.ElementIDs)
		assert.Nil(t, ev.ActFocus)
	})

	t.Run("missing description fails", func(t *testing.T) {
		_, err := m.MapTimelineEvent(context.Background(), source.Record{
			ID:   "ev-2",
			Data: map[string]any{"date": "1962-03-02"},
		})
		assert.Error(t, err)
	})
}

func TestMapElement(t *testing.T) {
	m := New(source.NewFake())

	el, err := m.MapElement(context.Background(), source.Record{
		ID: "el-1",
		Data: map[string]any{
			"name":              "Rusted key",
			"type":              "Prop",
			"status":            "Ready",
			"owner":             "char-1",
			"timeline_event":    "ev-1",
			"first_available":   "Act 1",
			"narrative_threads": []any{"The Fire"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, el.OwnerID)
	assert.Equal(t, "char-1", *el.OwnerID)
	assert.Nil(t, el.ContainerID)
	require.NotNil(t, el.TimelineEventID)
	assert.Equal(t, "ev-1", *el.TimelineEventID)
	assert.Equal(t, "Act 1", el.FirstAvailable)
	assert.Equal(t, models.StringList{"The Fire"}, el.NarrativeThreads)
}

func TestMapPuzzle(t *testing.T) {
	t.Run("keeps explicit story reveals", func(t *testing.T) {
		m := New(source.NewFake())
		p, err := m.MapPuzzle(context.Background(), source.Record{
			ID: "pz-1",
			Data: map[string]any{
				"name":          "The safe",
				"timing":        "Act 2",
				"story_reveals": "The ledger was forged",
				"rewards":       []any{"el-1"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "The ledger was forged", p.StoryReveals)
		assert.Equal(t, models.StringList{"el-1"}, p.RewardIDs)
	})

	t.Run("resolves locked item name when reveals are empty", func(t *testing.T) {
		fake := source.NewFake()
		fake.Add(models.KindElement, source.Record{
			ID:   "el-9",
			Data: map[string]any{"name": "Strongbox"},
		})
		m := New(fake)

		p, err := m.MapPuzzle(context.Background(), source.Record{
			ID: "pz-2",
			Data: map[string]any{
				"name":        "Hidden latch",
				"locked_item": "el-9",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Unlocks Strongbox", p.StoryReveals)
	})

	t.Run("unknown locked item leaves reveals empty", func(t *testing.T) {
		m := New(source.NewFake())
		p, err := m.MapPuzzle(context.Background(), source.Record{
			ID: "pz-3",
			Data: map[string]any{
				"name":        "Hidden latch",
				"locked_item": "el-404",
			},
		})
		require.NoError(t, err)
		assert.Empty(t, p.StoryReveals)
	})
}
