// Package derive computes the fields the source does not carry: act focus
// on timeline events, narrative threads on puzzles, and resolution paths
// on characters, elements and puzzles. One compute pass runs in a single
// transaction after the entity and relationship phases.
package derive

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/repositories/character"
	"github.com/Ramsey-B/fern/internal/repositories/element"
	"github.com/Ramsey-B/fern/internal/repositories/puzzle"
	"github.com/Ramsey-B/fern/internal/repositories/timelineevent"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Result reports one compute pass.
type Result struct {
	ActFocusSet       int  `json:"act_focus_set"`
	PuzzlesThreaded   int  `json:"puzzles_threaded"`
	ThreadStepSkipped bool `json:"thread_step_skipped,omitempty"`
	CharacterPaths    int  `json:"character_paths"`
	ElementPaths      int  `json:"element_paths"`
	PuzzlePaths       int  `json:"puzzle_paths"`
}

// Computer runs the derived-field pass.
type Computer struct {
	db         database.DB
	characters *character.Repository
	events     *timelineevent.Repository
	elements   *element.Repository
	puzzles    *puzzle.Repository
	logger     ectologger.Logger
}

func NewComputer(
	db database.DB,
	characters *character.Repository,
	events *timelineevent.Repository,
	elements *element.Repository,
	puzzles *puzzle.Repository,
	logger ectologger.Logger,
) *Computer {
	return &Computer{
		db:         db,
		characters: characters,
		events:     events,
		elements:   elements,
		puzzles:    puzzles,
		logger:     logger,
	}
}

// Run computes every derived field in one transaction. The pass is
// idempotent: running it twice over the same data writes the same values.
func (c *Computer) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "derive.Computer.Run")
	defer span.End()

	hasThreads, err := database.HasColumn(ctx, c.db, "puzzles", "narrative_threads")
	if err != nil {
		return nil, err
	}

	elements, err := c.elements.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := c.events.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	puzzles, err := c.puzzles.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	characters, err := c.characters.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{ThreadStepSkipped: !hasThreads}

	txCtx, tx, err := c.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := c.computeActFocusTx(txCtx, tx, events, elements, result); err != nil {
		return nil, err
	}

	if hasThreads {
		if err := c.computeNarrativeThreadsTx(txCtx, tx, puzzles, elements, result); err != nil {
			return nil, err
		}
	} else {
		c.logger.WithContext(ctx).Warn("Puzzles table has no narrative_threads column, skipping thread rollup")
	}

	if err := c.computeResolutionPathsTx(txCtx, tx, characters, elements, puzzles, result); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"act_focus_set":    result.ActFocusSet,
		"puzzles_threaded": result.PuzzlesThreaded,
		"character_paths":  result.CharacterPaths,
		"element_paths":    result.ElementPaths,
		"puzzle_paths":     result.PuzzlePaths,
	}).Info("Derived-field pass completed")

	return result, nil
}

// computeActFocusTx sets each event's act focus to the most common
// first-availability act among the elements that originate from it. Ties
// go to the act seen first in element insertion order. Events with no
// attributable elements keep a null focus.
func (c *Computer) computeActFocusTx(ctx context.Context, tx database.Tx, events []models.TimelineEvent, elements []models.Element, result *Result) error {
	byEvent := map[string][]string{}
	for _, el := range elements {
		if el.TimelineEventID == nil || el.FirstAvailable == "" {
			continue
		}
		byEvent[*el.TimelineEventID] = append(byEvent[*el.TimelineEventID], el.FirstAvailable)
	}

	for _, ev := range events {
		var focus *string
		if acts := byEvent[ev.ID]; len(acts) > 0 {
			mode := modeFirstSeen(acts)
			focus = &mode
		}
		if err := c.events.UpdateActFocusTx(ctx, tx, ev.ID, focus); err != nil {
			return err
		}
		if focus != nil {
			result.ActFocusSet++
		}
	}
	return nil
}

// modeFirstSeen returns the most frequent value, breaking ties by first
// appearance.
func modeFirstSeen(values []string) string {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best := order[0]
	for _, v := range order {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

// computeNarrativeThreadsTx rolls each puzzle's narrative threads up from
// its reward elements, merged with whatever threads the puzzle already
// carries.
func (c *Computer) computeNarrativeThreadsTx(ctx context.Context, tx database.Tx, puzzles []models.Puzzle, elements []models.Element, result *Result) error {
	threadsByElement := make(map[string]models.StringList, len(elements))
	for _, el := range elements {
		threadsByElement[el.ID] = el.NarrativeThreads
	}

	for i := range puzzles {
		p := &puzzles[i]
		threads := p.NarrativeThreads
		for _, rewardID := range p.RewardIDs {
			threads = threads.Union(threadsByElement[rewardID])
		}
		if len(threads) == len(p.NarrativeThreads) {
			continue
		}
		if err := c.puzzles.UpdateNarrativeThreadsTx(ctx, tx, p.ID, threads); err != nil {
			return err
		}
		// later steps classify against the merged threads
		p.NarrativeThreads = threads
		result.PuzzlesThreaded++
	}
	return nil
}

// computeResolutionPathsTx classifies every character, element and puzzle
// against the path rule table. Characters with many links read as
// community-driven even without keyword matches.
func (c *Computer) computeResolutionPathsTx(ctx context.Context, tx database.Tx, characters []models.Character, elements []models.Element, puzzles []models.Puzzle, result *Result) error {
	for _, ch := range characters {
		paths := classifyPaths(ch.Name, ch.Logline)
		if ch.Connections >= HighConnectionThreshold && !paths.Contains("Third Path") {
			if len(paths) == 1 && paths[0] == UnassignedPath {
				paths = models.StringList{"Third Path"}
			} else {
				paths = append(paths, "Third Path")
			}
		}
		if err := c.characters.UpdateResolutionPathsTx(ctx, tx, ch.ID, paths); err != nil {
			return err
		}
		result.CharacterPaths++
	}

	for _, el := range elements {
		fragments := append([]string{el.Name, el.Description, el.Status}, el.NarrativeThreads...)
		paths := classifyPaths(fragments...)
		if err := c.elements.UpdateResolutionPathsTx(ctx, tx, el.ID, paths); err != nil {
			return err
		}
		result.ElementPaths++
	}

	for _, p := range puzzles {
		fragments := append([]string{p.Name, p.StoryReveals}, p.NarrativeThreads...)
		paths := classifyPaths(fragments...)
		if err := c.puzzles.UpdateResolutionPathsTx(ctx, tx, p.ID, paths); err != nil {
			return err
		}
		result.PuzzlePaths++
	}
	return nil
}
