package models

// Puzzle is a story puzzle. NarrativeThreads is derived from reward
// elements; RewardIDs and PuzzleElementIDs keep source order.
type Puzzle struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Timing           string     `db:"timing" json:"timing"`
	OwnerID          *string    `db:"owner_id" json:"owner_id"`
	LockedItemID     *string    `db:"locked_item_id" json:"locked_item_id"`
	RewardIDs        StringList `db:"reward_ids" json:"reward_ids"`
	PuzzleElementIDs StringList `db:"puzzle_element_ids" json:"puzzle_element_ids"`
	StoryReveals     string     `db:"story_reveals" json:"story_reveals"`
	NarrativeThreads StringList `db:"narrative_threads" json:"narrative_threads"`
	ResolutionPaths  StringList `db:"resolution_paths" json:"resolution_paths"`
}
