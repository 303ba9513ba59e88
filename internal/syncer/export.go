package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// DefaultTimeout bounds one export exchange with the cloud node.
const DefaultTimeout = 5 * time.Minute

// Transport delivers a snapshot to the cloud node on behalf of the local
// user userID, authenticated by token.
//
// Implementations return a *common.TransportError for network failures and
// non-success statuses, and common.ErrorUnregisteredRemoteUser when the cloud
// node does not know the user.
type Transport interface {
	Push(ctx context.Context, userID, token string, snap *Snapshot) (*IngestResult, error)
}

// ExportResult reports one export attempt.
type ExportResult struct {
	Found        int           `json:"found"`
	Missing      int           `json:"missing"`
	MissingFiles []string      `json:"missing_files,omitempty"`
	TotalBytes   int64         `json:"total_bytes"`
	MarkedSynced int64         `json:"marked_synced"`
	Remote       *IngestResult `json:"remote,omitempty"`
}

// Exporter ships a user's snapshot to the cloud node and records the outcome.
type Exporter struct {
	catalog   *catalog.Catalog
	builder   *Builder
	transport Transport
	timeout   time.Duration
	logger    logging.Logger
}

func NewExporter(c *catalog.Catalog, store assets.Store, transport Transport, timeout time.Duration, logger logging.Logger) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{
		catalog:   c,
		builder:   NewBuilder(c, store, logger),
		transport: transport,
		timeout:   timeout,
		logger:    logger,
	}
}

// Export builds and transmits the snapshot of userID. Only after the cloud
// node confirms does it mark the included images cloud_synced, in one
// transaction. Failures are never retried here; common.IsRetryable tells
// the caller whether trying again can help.
func (e *Exporter) Export(ctx context.Context, userID string) (*ExportResult, error) {
	user, err := e.catalog.Users(e.catalog.DB).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	snap, err := e.builder.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	res := &ExportResult{
		Found:        snap.Statistics.Found,
		Missing:      snap.Statistics.Missing,
		MissingFiles: snap.Statistics.MissingFiles,
		TotalBytes:   snap.Statistics.TotalBytes,
	}

	e.logger.Info(ctx, "export started", "user_id", userID, "images", snap.Statistics.TotalMetadata,
		"found", snap.Statistics.Found, "missing", snap.Statistics.Missing)

	pushCtx, cancel := context.WithTimeout(ctx, e.timeout)
	remote, err := e.transport.Push(pushCtx, user.ID, user.CloudToken, snap)
	cancel()
	if err != nil {
		e.logger.Error(ctx, "export failed", "user_id", userID, "error", err, "retryable", common.IsRetryable(err))
		e.audit(ctx, userID, models.SyncStatusFailed, snap, err.Error())
		return res, fmt.Errorf("push snapshot: %w", err)
	}
	res.Remote = remote

	err = e.catalog.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := e.catalog.Images(tx).MarkSynced(ctx, userID, snap.Included())
		if err != nil {
			return err
		}
		res.MarkedSynced = n

		count, bytes, err := e.catalog.Images(tx).Totals(ctx, userID)
		if err != nil {
			return err
		}
		return e.catalog.Users(tx).UpdateSyncStats(ctx, userID, count, bytes, timex.Now())
	})
	if err != nil {
		return res, fmt.Errorf("mark synced: %w", err)
	}

	status := models.SyncStatusCompleted
	msg := ""
	if snap.Statistics.Missing > 0 || remote.Failed() > 0 {
		status = models.SyncStatusPartial
		msg = fmt.Sprintf("%d files missing locally, %d records rejected remotely", snap.Statistics.Missing, remote.Failed())
	}
	e.audit(ctx, userID, status, snap, msg)

	e.logger.Info(ctx, "export finished", "user_id", userID, "status", status, "marked_synced", res.MarkedSynced)
	return res, nil
}

func (e *Exporter) audit(ctx context.Context, userID string, status models.SyncStatus, snap *Snapshot, msg string) {
	rec := &models.SyncRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		SyncType:     models.SyncTypeExport,
		Status:       status,
		TotalBytes:   snap.Statistics.TotalBytes,
		ErrorMessage: msg,
		CreatedAt:    timex.Now(),
	}
	if status != models.SyncStatusFailed {
		rec.ImagesSynced = snap.Statistics.Found
		rec.ImagesFailed = snap.Statistics.Missing
		rec.DerivedSynced = len(snap.Derived)
		rec.FavoritesSynced = len(snap.Favorites)
	} else {
		rec.ImagesFailed = snap.Statistics.TotalMetadata
		rec.DerivedFailed = len(snap.Derived)
		rec.FavoritesFailed = len(snap.Favorites)
	}

	ctx = context.WithoutCancel(ctx)
	if err := e.catalog.SyncRecords(e.catalog.DB).Insert(ctx, rec); err != nil {
		e.logger.Error(ctx, "write export audit record", "user_id", userID, "error", err)
	}
}
