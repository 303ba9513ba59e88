package favorites

import (
	"context"

	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Repository persists favorite joins.
type Repository interface {
	// Add inserts fav unless the (user, image, type) triple already exists,
	// in which case it reports false and leaves the existing row alone.
	Add(ctx context.Context, fav *models.Favorite) (bool, error)

	// Remove deletes the triple and reports whether a row was removed.
	Remove(ctx context.Context, userID, imageID, favoriteType string) (bool, error)

	List(ctx context.Context, userID string) ([]models.Favorite, error)

	// Upsert stores fav keyed by id. A row holding the same triple under a
	// different id is replaced.
	Upsert(ctx context.Context, fav *models.Favorite) (bool, error)

	// DeleteByImage removes every favorite referencing imageID.
	DeleteByImage(ctx context.Context, imageID string) (int64, error)
}
