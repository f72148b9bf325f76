package database

import (
	"context"
	"fmt"
)

// HasColumn reports whether a table carries the named column. Derived-field
// steps that depend on optional columns use this to stay schema-tolerant.
func HasColumn(ctx context.Context, db DB, table, column string) (bool, error) {
	rows, err := db.QueryxContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var info struct {
			CID          int     `db:"cid"`
			Name         string  `db:"name"`
			Type         string  `db:"type"`
			NotNull      int     `db:"notnull"`
			DefaultValue *string `db:"dflt_value"`
			PK           int     `db:"pk"`
		}
		if err := rows.StructScan(&info); err != nil {
			return false, err
		}
		if info.Name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
