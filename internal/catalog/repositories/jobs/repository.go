package jobs

import (
	"context"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Repository persists background job records.
type Repository interface {
	Insert(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)

	// UpdateStatus overwrites status, message and updated_at. It reports
	// false when no job has that id.
	UpdateStatus(ctx context.Context, id string, status models.JobStatus, message string, at time.Time) (bool, error)

	// ListByUser returns the user's most recent jobs first.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Job, error)
}
