package models

import "time"

// Sync unit statuses recorded in the audit trail.
const (
	SyncStatusStarted   = "started"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncLogEntry is one append-only audit row for a sync unit.
type SyncLogEntry struct {
	ID             string     `db:"id" json:"id"`
	StartTime      time.Time  `db:"start_time" json:"start_time"`
	EndTime        *time.Time `db:"end_time" json:"end_time"`
	Status         string     `db:"status" json:"status"`
	EntityType     string     `db:"entity_type" json:"entity_type"`
	RecordsFetched int        `db:"records_fetched" json:"records_fetched"`
	RecordsSynced  int        `db:"records_synced" json:"records_synced"`
	Errors         int        `db:"errors" json:"errors"`
	ErrorDetails   *string    `db:"error_details" json:"error_details"`
}

// SyncStats are the counts reported when a sync unit finishes.
type SyncStats struct {
	Fetched int `json:"fetched"`
	Synced  int `json:"synced"`
	Errors  int `json:"errors"`
}
