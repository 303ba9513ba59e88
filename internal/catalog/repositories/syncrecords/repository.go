package syncrecords

import (
	"context"

	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Repository persists the sync audit trail.
type Repository interface {
	Insert(ctx context.Context, rec *models.SyncRecord) error

	// ListRecent returns the user's latest records, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]models.SyncRecord, error)
}
