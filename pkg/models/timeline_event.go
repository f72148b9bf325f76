package models

// TimelineEvent is a backstory event. ActFocus is derived from the
// earliest-availability acts of the associated elements and stays nil when
// none resolve.
type TimelineEvent struct {
	ID           string     `db:"id" json:"id"`
	Description  string     `db:"description" json:"description"`
	Date         string     `db:"date" json:"date"`
	CharacterIDs StringList `db:"character_ids" json:"character_ids"`
	ElementIDs   StringList `db:"element_ids" json:"element_ids"`
	Notes        string     `db:"notes" json:"notes"`
	ActFocus     *string    `db:"act_focus" json:"act_focus"`
}
