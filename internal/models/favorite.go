package models

import "time"

// FavoriteTypeImage is the only favorite type in use.
const FavoriteTypeImage = "image"

// Favorite joins a user to an image. (UserID, ImageID, FavoriteType) is
// unique.
type Favorite struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ImageID      string    `json:"image_id"`
	FavoriteType string    `json:"favorite_type"`
	CreatedAt    time.Time `json:"created_at"`
}
