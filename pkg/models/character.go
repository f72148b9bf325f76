package models

// Character is a story character synced from the external source.
// ResolutionPaths is derived after sync, never fetched.
type Character struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Type            string     `db:"type" json:"type"`
	Tier            string     `db:"tier" json:"tier"`
	Logline         string     `db:"logline" json:"logline"`
	Connections     int        `db:"connections" json:"connections"`
	ResolutionPaths StringList `db:"resolution_paths" json:"resolution_paths"`
}

// CharacterRelationships are the relation lists a character document
// carries in the source; they feed the join tables, not the characters row.
type CharacterRelationships struct {
	CharacterID          string
	TimelineEventIDs     []string
	OwnedElementIDs      []string
	AssociatedElementIDs []string
	PuzzleIDs            []string
}
