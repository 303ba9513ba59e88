package images

import (
	"context"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Repository persists image metadata. It never touches files.
type Repository interface {
	// Insert adds a new row. A (user, category, filename) collision yields
	// common.ErrorAlreadyExists.
	Insert(ctx context.Context, img *models.Image) error

	// Upsert inserts img or overwrites the row with the same id. A row with
	// that id owned by another user is left alone and reported as false.
	Upsert(ctx context.Context, img *models.Image) (bool, error)

	GetByID(ctx context.Context, userID, id string) (*models.Image, error)

	// FindByFilename returns the newest image of the user with that filename.
	FindByFilename(ctx context.Context, userID, filename string) (*models.Image, error)

	// List returns one page ordered newest first. An empty category lists all.
	List(ctx context.Context, userID string, c category.Category, limit, offset int) ([]models.Image, error)

	// ListAll returns every image of the user ordered newest first.
	ListAll(ctx context.Context, userID string) ([]models.Image, error)

	// Count counts the user's images. An empty category counts all.
	Count(ctx context.Context, userID string, c category.Category) (int64, error)

	// CountAll counts images of every user.
	CountAll(ctx context.Context) (int64, error)

	// Totals returns the user's image count and total stored bytes.
	Totals(ctx context.Context, userID string) (count, bytes int64, err error)

	Delete(ctx context.Context, userID, id string) error

	// MarkSynced flags the given images as synced in one statement and
	// returns how many rows changed.
	MarkSynced(ctx context.Context, userID string, ids []string) (int64, error)
}
