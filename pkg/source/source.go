// Package source is the narrow interface to the external document store
// that authors edit. The pipeline only ever fetches whole collections and
// resolves display names; everything else is local store access.
package source

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Record is one raw document from the source: its stable ID plus the
// kind-specific fields, untyped. The property mapper owns interpretation.
type Record struct {
	ID   string
	Data map[string]any
}

// Source fetches raw records per entity kind. FetchAll returns the complete
// set; pagination is the implementation's problem.
type Source interface {
	FetchAll(ctx context.Context, kind models.EntityKind) ([]Record, error)
	// LookupName resolves the display name of a record, for mappers that
	// need a related record's name. ok is false when the record is unknown.
	LookupName(ctx context.Context, kind models.EntityKind, id string) (name string, ok bool)
}
