package models

// Link types record which shared artifact produced a character link.
const (
	LinkTypeTimelineEvent = "timeline_event"
	LinkTypePuzzle        = "puzzle"
	LinkTypeElement       = "element"
	LinkTypeMixed         = "mixed"
)

// MaxLinkStrength caps the weighted link score.
const MaxLinkStrength = 100

// CharacterLink is a derived, undirected edge between two characters.
// Pairs are stored once in canonical order (CharacterAID < CharacterBID).
type CharacterLink struct {
	CharacterAID string `db:"character_a_id" json:"character_a_id"`
	CharacterBID string `db:"character_b_id" json:"character_b_id"`
	LinkType     string `db:"link_type" json:"link_type"`
	LinkStrength int    `db:"link_strength" json:"link_strength"`
}
