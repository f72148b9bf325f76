package models

// EntityKind identifies one of the four synced entity types.
type EntityKind string

const (
	KindCharacter     EntityKind = "characters"
	KindTimelineEvent EntityKind = "timeline_events"
	KindElement       EntityKind = "elements"
	KindPuzzle        EntityKind = "puzzles"
)

// SyncOrder is the fixed entity sync order. Independent entities come
// first: elements reference characters and timeline events, puzzles
// reference characters and elements.
var SyncOrder = []EntityKind{
	KindCharacter,
	KindTimelineEvent,
	KindElement,
	KindPuzzle,
}

func (k EntityKind) String() string {
	return string(k)
}
