// Package models holds the entities shared by the catalog, the asset
// pipeline and the sync protocol of both nodes.
package models

import (
	"time"

	"github.com/dmitrijs2005/closetsync/internal/category"
)

// ImageStatus is the soft status of an image row.
type ImageStatus string

const (
	ImageStatusActive   ImageStatus = "active"
	ImageStatusArchived ImageStatus = "archived"
)

// Image is the catalog record of one stored image file.
// (UserID, Category, Filename) is unique; the file itself is resolved by
// trying Category first and the remaining categories afterwards.
type Image struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Filename    string            `json:"filename"`
	Category    category.Category `json:"category"`
	OriginalURL string            `json:"original_url,omitempty"`
	PageURL     string            `json:"page_url,omitempty"`
	PageTitle   string            `json:"page_title,omitempty"`
	ContextInfo map[string]any    `json:"context_info,omitempty"`
	FileSize    int64             `json:"file_size"`
	Width       int               `json:"image_width"`
	Height      int               `json:"image_height"`
	SavedAt     time.Time         `json:"saved_at"`
	CloudSynced bool              `json:"cloud_synced"`
	Status      ImageStatus       `json:"status"`
}
