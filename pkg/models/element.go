package models

// Element is a physical or narrative story item. Owner, container and
// originating timeline event are nullable references that are nulled out
// when they fail to resolve within the same sync run.
type Element struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Type             string     `db:"type" json:"type"`
	Description      string     `db:"description" json:"description"`
	Status           string     `db:"status" json:"status"`
	OwnerID          *string    `db:"owner_id" json:"owner_id"`
	ContainerID      *string    `db:"container_id" json:"container_id"`
	TimelineEventID  *string    `db:"timeline_event_id" json:"timeline_event_id"`
	FirstAvailable   string     `db:"first_available" json:"first_available"`
	NarrativeThreads StringList `db:"narrative_threads" json:"narrative_threads"`
	ResolutionPaths  StringList `db:"resolution_paths" json:"resolution_paths"`
}
