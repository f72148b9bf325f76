package derive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/logging"
	characterrepo "github.com/Ramsey-B/fern/internal/repositories/character"
	elementrepo "github.com/Ramsey-B/fern/internal/repositories/element"
	puzzlerepo "github.com/Ramsey-B/fern/internal/repositories/puzzle"
	timelineeventrepo "github.com/Ramsey-B/fern/internal/repositories/timelineevent"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fixture struct {
	db       database.DB
	computer *Computer
	events   *timelineeventrepo.Repository
	puzzles  *puzzlerepo.Repository
	chars    *characterrepo.Repository
	elements *elementrepo.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	logger := logging.NewNop()
	chars := characterrepo.NewRepository(db, logger)
	events := timelineeventrepo.NewRepository(db, logger)
	elements := elementrepo.NewRepository(db, logger)
	puzzles := puzzlerepo.NewRepository(db, logger)

	return &fixture{
		db:       db,
		computer: NewComputer(db, chars, events, elements, puzzles, logger),
		events:   events,
		puzzles:  puzzles,
		chars:    chars,
		elements: elements,
	}
}

func (f *fixture) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := f.db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func TestRunComputesActFocus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec(t, "INSERT INTO timeline_events (id, description) VALUES ('ev-1', 'The fire')")
	f.exec(t, "INSERT INTO timeline_events (id, description) VALUES ('ev-2', 'The trial')")
	f.exec(t, "INSERT INTO elements (id, name, timeline_event_id, first_available) VALUES ('el-1', 'a', 'ev-1', 'Act 1')")
	f.exec(t, "INSERT INTO elements (id, name, timeline_event_id, first_available) VALUES ('el-2', 'b', 'ev-1', 'Act 2')")
	f.exec(t, "INSERT INTO elements (id, name, timeline_event_id, first_available) VALUES ('el-3', 'c', 'ev-1', 'Act 2')")

	result, err := f.computer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ActFocusSet)

	events, err := f.events.GetAll(ctx)
	require.NoError(t, err)
	byID := map[string]models.TimelineEvent{}
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	require.NotNil(t, byID["ev-1"].ActFocus)
	assert.Equal(t, "Act 2", *byID["ev-1"].ActFocus)
	assert.Nil(t, byID["ev-2"].ActFocus, "events without elements keep a null focus")
}

func TestRunActFocusTieBreaksOnFirstSeen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec(t, "INSERT INTO timeline_events (id, description) VALUES ('ev-1', 'The fire')")
	f.exec(t, "INSERT INTO elements (id, name, timeline_event_id, first_available) VALUES ('el-1', 'a', 'ev-1', 'Act 3')")
	f.exec(t, "INSERT INTO elements (id, name, timeline_event_id, first_available) VALUES ('el-2', 'b', 'ev-1', 'Act 1')")

	_, err := f.computer.Run(ctx)
	require.NoError(t, err)

	events, err := f.events.GetAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, events[0].ActFocus)
	assert.Equal(t, "Act 3", *events[0].ActFocus)
}

func TestRunRollsUpNarrativeThreads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec(t, "INSERT INTO elements (id, name, narrative_threads) VALUES ('el-1', 'a', ?)", models.StringList{"The Fire", "The Ledger"})
	f.exec(t, "INSERT INTO elements (id, name, narrative_threads) VALUES ('el-2', 'b', ?)", models.StringList{"The Ledger"})
	f.exec(t, "INSERT INTO puzzles (id, name, reward_ids, narrative_threads) VALUES ('pz-1', 'safe', ?, ?)",
		models.StringList{"el-1", "el-2"}, models.StringList{"The Safe"})
	f.exec(t, "INSERT INTO puzzles (id, name) VALUES ('pz-2', 'latch')")

	result, err := f.computer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PuzzlesThreaded)
	assert.False(t, result.ThreadStepSkipped)

	puzzles, err := f.puzzles.GetAll(ctx)
	require.NoError(t, err)
	byID := map[string]models.Puzzle{}
	for _, p := range puzzles {
		byID[p.ID] = p
	}

	assert.Equal(t, models.StringList{"The Safe", "The Fire", "The Ledger"}, byID["pz-1"].NarrativeThreads)
	assert.Empty(t, byID["pz-2"].NarrativeThreads)
}

func TestRunAssignsResolutionPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec(t, "INSERT INTO characters (id, name, logline) VALUES ('char-1', 'Howie', 'Trades memories on the black market')")
	f.exec(t, "INSERT INTO characters (id, name, logline) VALUES ('char-2', 'Sofia', 'Follows every clue to the evidence')")
	f.exec(t, "INSERT INTO characters (id, name, logline) VALUES ('char-3', 'Victoria', 'Keeps to herself')")
	f.exec(t, "INSERT INTO elements (id, name, description) VALUES ('el-1', 'Ledger', 'Evidence of the community working together')")
	f.exec(t, "INSERT INTO puzzles (id, name, story_reveals) VALUES ('pz-1', 'The safe', 'A memory worth trading')")

	result, err := f.computer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CharacterPaths)
	assert.Equal(t, 1, result.ElementPaths)
	assert.Equal(t, 1, result.PuzzlePaths)

	chars, err := f.chars.GetAll(ctx)
	require.NoError(t, err)
	byID := map[string]models.Character{}
	for _, c := range chars {
		byID[c.ID] = c
	}

	assert.Equal(t, models.StringList{"Black Market"}, byID["char-1"].ResolutionPaths)
	assert.Equal(t, models.StringList{"Detective"}, byID["char-2"].ResolutionPaths)
	assert.Equal(t, models.StringList{UnassignedPath}, byID["char-3"].ResolutionPaths)

	elements, err := f.elements.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"Detective", "Third Path"}, elements[0].ResolutionPaths)

	puzzles, err := f.puzzles.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"Black Market"}, puzzles[0].ResolutionPaths)
}

func TestRunHighConnectionCharactersReadAsThirdPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec(t, "INSERT INTO characters (id, name, logline, connections) VALUES ('char-1', 'Howie', 'Keeps to himself', 6)")
	f.exec(t, "INSERT INTO characters (id, name, logline, connections) VALUES ('char-2', 'Sofia', 'Chases evidence', 7)")

	_, err := f.computer.Run(ctx)
	require.NoError(t, err)

	chars, err := f.chars.GetAll(ctx)
	require.NoError(t, err)
	byID := map[string]models.Character{}
	for _, c := range chars {
		byID[c.ID] = c
	}

	assert.Equal(t, models.StringList{"Third Path"}, byID["char-1"].ResolutionPaths)
	assert.Equal(t, models.StringList{"Detective", "Third Path"}, byID["char-2"].ResolutionPaths)
}

func TestClassifyPaths(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.StringList
	}{
		{"black market keyword", "sells on the black market", models.StringList{"Black Market"}},
		{"memory keyword", "a stolen memory", models.StringList{"Black Market"}},
		{"detective keywords", "the clue points to new evidence", models.StringList{"Detective"}},
		{"third path keywords", "the community comes together", models.StringList{"Third Path"}},
		{"multiple categories", "trade the evidence together", models.StringList{"Black Market", "Detective", "Third Path"}},
		{"case insensitive", "BLACK MARKET deal", models.StringList{"Black Market"}},
		{"no match", "nothing of note", models.StringList{UnassignedPath}},
		{"empty text", "", models.StringList{UnassignedPath}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifyPaths(tc.text))
		})
	}
}

func TestModeFirstSeen(t *testing.T) {
	assert.Equal(t, "b", modeFirstSeen([]string{"a", "b", "b"}))
	assert.Equal(t, "a", modeFirstSeen([]string{"a", "b"}))
	assert.Equal(t, "a", modeFirstSeen([]string{"a"}))
}
