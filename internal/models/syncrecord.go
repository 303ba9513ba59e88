package models

import "time"

// SyncStatus is the outcome recorded in a sync audit entry.
type SyncStatus string

const (
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusPartial   SyncStatus = "partial"
	SyncStatusFailed    SyncStatus = "failed"
)

// Sync types.
const (
	SyncTypeIngest = "ingest"
	SyncTypeExport = "export"
)

// SyncRecord is the audit entry written for every sync attempt.
type SyncRecord struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	SyncType        string     `json:"sync_type"`
	Status          SyncStatus `json:"status"`
	ImagesSynced    int        `json:"images_synced"`
	ImagesFailed    int        `json:"images_failed"`
	DerivedSynced   int        `json:"derived_synced"`
	DerivedFailed   int        `json:"derived_failed"`
	FavoritesSynced int        `json:"favorites_synced"`
	FavoritesFailed int        `json:"favorites_failed"`
	TotalBytes      int64      `json:"total_bytes"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
