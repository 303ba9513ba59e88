package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/jobs"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
)

// RecentSyncLimit is the number of audit records returned by status calls.
const RecentSyncLimit = 5

// Exporter is the part of *syncer.Exporter the service drives.
type Exporter interface {
	Export(ctx context.Context, userID string) (*syncer.ExportResult, error)
}

// Pinger probes whether the cloud node is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CloudHistory reads the audit trail kept by the cloud node.
type CloudHistory interface {
	SyncHistory(ctx context.Context, userID, token string) ([]models.SyncRecord, error)
}

// SyncService exports a user's library to the cloud node.
type SyncService interface {
	// Export runs one export and waits for its outcome.
	Export(ctx context.Context, userID string) (*syncer.ExportResult, error)
	// ExportAsync schedules an export and returns the job tracking it.
	ExportAsync(ctx context.Context, userID string) (*models.Job, error)
	// History returns the latest local export records.
	History(ctx context.Context, userID string) ([]models.SyncRecord, error)
	// CloudHistory returns the latest ingest records kept by the cloud node.
	CloudHistory(ctx context.Context, userID string) ([]models.SyncRecord, error)
	// CloudReachable reports whether the cloud node answers health checks.
	CloudReachable(ctx context.Context) bool
}

type syncService struct {
	catalog  *catalog.Catalog
	exporter Exporter
	tracker  *jobs.Tracker
	pinger   Pinger
	cloud    CloudHistory
	logger   logging.Logger
}

// NewSyncService wires a SyncService. pinger may be nil, in which case the
// cloud node is assumed reachable and exports go straight to the transport.
func NewSyncService(c *catalog.Catalog, exporter Exporter, tracker *jobs.Tracker, pinger Pinger, cloud CloudHistory, logger logging.Logger) SyncService {
	return &syncService{
		catalog:  c,
		exporter: exporter,
		tracker:  tracker,
		pinger:   pinger,
		cloud:    cloud,
		logger:   logger.With("service", "sync"),
	}
}

func (s *syncService) Export(ctx context.Context, userID string) (*syncer.ExportResult, error) {
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn(ctx, "cloud node unreachable, export skipped", "user_id", userID, "error", err)
			return nil, &common.TransportError{Err: err}
		}
	}
	return s.exporter.Export(ctx, userID)
}

func (s *syncService) ExportAsync(ctx context.Context, userID string) (*models.Job, error) {
	if _, err := s.catalog.Users(s.catalog.DB).GetByID(ctx, userID); err != nil {
		return nil, err
	}
	job, err := s.tracker.Create(ctx, userID, "", models.JobKindExport)
	if err != nil {
		return nil, err
	}
	err = s.tracker.Finish(job, func(ctx context.Context) error {
		res, err := s.Export(ctx, userID)
		if err != nil {
			return err
		}
		s.logger.Info(ctx, "export finished", "user_id", userID, "job_id", job.ID,
			"found", res.Found, "missing", res.Missing, "marked_synced", res.MarkedSynced)
		return nil
	})
	if err != nil {
		if _, aerr := s.tracker.Advance(context.WithoutCancel(ctx), job.ID, models.JobStatusFailed, err.Error()); aerr != nil {
			s.logger.Error(ctx, "advance job", "job_id", job.ID, "error", aerr)
		}
		return nil, fmt.Errorf("schedule export: %w", err)
	}
	return job, nil
}

func (s *syncService) History(ctx context.Context, userID string) ([]models.SyncRecord, error) {
	recs, err := s.catalog.SyncRecords(s.catalog.DB).ListRecent(ctx, userID, RecentSyncLimit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.SyncRecord{}
	}
	return recs, nil
}

func (s *syncService) CloudHistory(ctx context.Context, userID string) ([]models.SyncRecord, error) {
	if s.cloud == nil {
		return nil, fmt.Errorf("%w: no cloud node configured", common.ErrorInternal)
	}
	user, err := s.catalog.Users(s.catalog.DB).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cloud.SyncHistory(ctx, userID, user.CloudToken)
}

func (s *syncService) CloudReachable(ctx context.Context) bool {
	if s.pinger == nil {
		return false
	}
	return s.pinger.Ping(ctx) == nil
}
