package derived

import (
	"context"

	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Repository persists try-on history records.
type Repository interface {
	Insert(ctx context.Context, rec *models.DerivedAsset) error

	// Upsert stores rec keyed by id; rows of other users are left alone.
	Upsert(ctx context.Context, rec *models.DerivedAsset) (bool, error)

	// List returns one page ordered newest first.
	List(ctx context.Context, userID string, limit, offset int) ([]models.DerivedAsset, error)
	ListAll(ctx context.Context, userID string) ([]models.DerivedAsset, error)
	Count(ctx context.Context, userID string) (int64, error)

	// DeleteByResultImage removes every record whose produced image is imageID.
	DeleteByResultImage(ctx context.Context, imageID string) (int64, error)
}
