package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	jobrepo "github.com/dmitrijs2005/closetsync/internal/catalog/repositories/jobs"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// Tracker owns the job state machine: processing -> completed | failed.
type Tracker struct {
	repo   jobrepo.Repository
	pool   *Pool
	logger logging.Logger
}

func NewTracker(repo jobrepo.Repository, pool *Pool, logger logging.Logger) *Tracker {
	return &Tracker{repo: repo, pool: pool, logger: logger.With("component", "job_tracker")}
}

// Create persists a processing job before returning, so a client polling
// right after receiving the id always finds it.
func (t *Tracker) Create(ctx context.Context, userID, imageID, kind string) (*models.Job, error) {
	now := timex.Now()
	job := &models.Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImageID:   imageID,
		Kind:      kind,
		Status:    models.JobStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.repo.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Advance sets the status of job id. Re-advancing a terminal job overwrites
// it. An unknown id is logged as a warning and reported as false.
func (t *Tracker) Advance(ctx context.Context, id string, status models.JobStatus, message string) (bool, error) {
	if !status.IsValid() {
		return false, common.Validationf("invalid job status %q", status)
	}
	ok, err := t.repo.UpdateStatus(ctx, id, status, message, timex.Now())
	if err != nil {
		return false, fmt.Errorf("advance job %s: %w", id, err)
	}
	if !ok {
		t.logger.Warn(ctx, "advance of unknown job", "job_id", id, "status", status)
	}
	return ok, nil
}

// Get returns job id or common.ErrorNotFound.
func (t *Tracker) Get(ctx context.Context, id string) (*models.Job, error) {
	return t.repo.GetByID(ctx, id)
}

// Finish hands work for job to the pool and returns immediately. When work
// returns the job is advanced to completed, or to failed with the error
// text.
func (t *Tracker) Finish(job *models.Job, work Task) error {
	return t.pool.Submit(job.Kind+":"+job.ID, func(ctx context.Context) error {
		status, message := models.JobStatusCompleted, ""
		if work != nil {
			if err := work(ctx); err != nil {
				status, message = models.JobStatusFailed, err.Error()
			}
		}
		// the pool context may already be cancelled on shutdown
		if _, err := t.Advance(context.WithoutCancel(ctx), job.ID, status, message); err != nil {
			return err
		}
		if message != "" {
			return errors.New(message)
		}
		return nil
	})
}

// Delay returns a task that waits d, standing in for post-capture
// processing.
func Delay(d time.Duration) Task {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
