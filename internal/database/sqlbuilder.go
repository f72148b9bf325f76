package database

import (
	"github.com/huandu/go-sqlbuilder"
)

// SQLite-flavored builder constructors so repositories never reach for the
// flavor constant directly.

type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{
		sqlbuilder.SQLite.NewInsertBuilder(),
	}
}

// InsertIgnoreInto emits INSERT OR IGNORE for the SQLite flavor; duplicate
// relationship rows become no-ops instead of errors.
func (ib *InsertBuilder) InsertIgnoreInto(table string) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.InsertIgnoreInto(table)}
}

func (ib *InsertBuilder) InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.InsertInto(table)}
}

func (ib *InsertBuilder) Cols(col ...string) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.Cols(col...)}
}

func (ib *InsertBuilder) Values(value ...interface{}) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.Values(value...)}
}

type UpdateBuilder struct {
	*sqlbuilder.UpdateBuilder
}

func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{sqlbuilder.SQLite.NewUpdateBuilder()}
}

type DeleteBuilder struct {
	*sqlbuilder.DeleteBuilder
}

func NewDeleteBuilder() *DeleteBuilder {
	return &DeleteBuilder{sqlbuilder.SQLite.NewDeleteBuilder()}
}

type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{sqlbuilder.SQLite.NewSelectBuilder()}
}
