// Package syncer reconciles one user's assets between the local node and the
// cloud node. The local side builds a full Snapshot and ships it through a
// Transport; the cloud side ingests it idempotently by record id.
package syncer

import (
	"time"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/models"
)

// UserInfo identifies the sending local user.
type UserInfo struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics summarises how much of the catalog made it into a Snapshot.
type Statistics struct {
	TotalMetadata     int                       `json:"total_metadata"`
	Found             int                       `json:"found"`
	Missing           int                       `json:"missing"`
	MissingFiles      []string                  `json:"missing_files,omitempty"`
	TotalBytes        int64                     `json:"total_bytes"`
	CategoryBreakdown map[category.Category]int `json:"category_breakdown"`
}

// Snapshot is the full export of one user. ImageFiles maps a filename to a
// data URL of its bytes; images whose file could not be located are listed
// in Images but absent from ImageFiles.
type Snapshot struct {
	UserInfo      UserInfo              `json:"user_info"`
	Images        []models.Image        `json:"images_metadata"`
	ImageFiles    map[string]string     `json:"image_files"`
	Derived       []models.DerivedAsset `json:"derived_asset_history"`
	Favorites     []models.Favorite     `json:"favorites"`
	SyncTimestamp time.Time             `json:"sync_timestamp"`
	Statistics    Statistics            `json:"statistics"`

	included []string
}

// Included returns the ids of images whose bytes are in the snapshot.
func (s *Snapshot) Included() []string {
	return s.included
}

// IngestResult is the cloud node's answer to a processed snapshot, partial
// outcomes included.
type IngestResult struct {
	Success         bool              `json:"success"`
	SyncID          string            `json:"sync_id"`
	CloudUserID     string            `json:"cloud_user_id"`
	TotalImages     int               `json:"total_images"`
	ImagesSynced    int               `json:"images_synced"`
	ImagesFailed    int               `json:"images_failed"`
	DerivedSynced   int               `json:"derived_synced"`
	DerivedFailed   int               `json:"derived_failed"`
	FavoritesSynced int               `json:"favorites_synced"`
	FavoritesFailed int               `json:"favorites_failed"`
	TotalBytes      int64             `json:"total_bytes"`
	SyncTimestamp   time.Time         `json:"sync_timestamp"`
	ServerTimestamp time.Time         `json:"server_timestamp"`
	Status          models.SyncStatus `json:"status"`
}

// Failed is the number of records of any kind that were not stored.
func (r *IngestResult) Failed() int {
	return r.ImagesFailed + r.DerivedFailed + r.FavoritesFailed
}
