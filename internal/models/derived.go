package models

import "time"

// DerivedAsset is one entry of the try-on history: two source images by
// filename and the produced image by id.
type DerivedAsset struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	SubjectFilename string         `json:"subject_filename"`
	PrimaryFilename string         `json:"primary_filename"`
	ResultImageID   string         `json:"result_image_id"`
	ResultFilename  string         `json:"result_filename"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	ProcessingTime  float64        `json:"processing_time"`
	CreatedAt       time.Time      `json:"created_at"`
}
