package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Repository persists user accounts.
type Repository interface {
	// Create inserts user. A username or email collision yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetActiveByLocalUserID resolves the cloud account registered for a
	// local node user.
	GetActiveByLocalUserID(ctx context.Context, localUserID string) (*models.User, error)

	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetCloudToken(ctx context.Context, id, token string) error

	// UpdateSyncStats overwrites the aggregate counters and last sync time.
	UpdateSyncStats(ctx context.Context, id string, imageCount, storageBytes int64, at time.Time) error
}
