package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
)

// HistoryLimit is how many audit records a status query returns.
const HistoryLimit = 5

// Ingester merges a snapshot into the cloud catalog.
type Ingester interface {
	Ingest(ctx context.Context, localUserID string, snap *syncer.Snapshot) (*syncer.IngestResult, error)
}

// SyncService accepts snapshots from local nodes and reports their history.
//
// A bearer token is optional on both operations; when one is presented it
// must be valid and belong to the account linked to localUserID.
type SyncService interface {
	Ingest(ctx context.Context, localUserID, token string, snap *syncer.Snapshot) (*syncer.IngestResult, error)
	History(ctx context.Context, localUserID, token string) ([]models.SyncRecord, error)
}

type syncService struct {
	catalog  *catalog.Catalog
	ingester Ingester
	users    UserService
	logger   logging.Logger
}

func NewSyncService(c *catalog.Catalog, ingester Ingester, users UserService, logger logging.Logger) SyncService {
	return &syncService{catalog: c, ingester: ingester, users: users, logger: logger.With("service", "sync")}
}

func (s *syncService) Ingest(ctx context.Context, localUserID, token string, snap *syncer.Snapshot) (*syncer.IngestResult, error) {
	if snap == nil {
		return nil, common.Validationf("no sync data received")
	}
	if _, err := s.authorize(ctx, localUserID, token); err != nil {
		return nil, err
	}
	return s.ingester.Ingest(ctx, localUserID, snap)
}

func (s *syncService) History(ctx context.Context, localUserID, token string) ([]models.SyncRecord, error) {
	user, err := s.authorize(ctx, localUserID, token)
	if err != nil {
		return nil, err
	}
	recs, err := s.catalog.SyncRecords(s.catalog.DB).ListRecent(ctx, user.ID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.SyncRecord{}
	}
	return recs, nil
}

// authorize resolves the cloud account of localUserID and checks the
// presented token against it.
func (s *syncService) authorize(ctx context.Context, localUserID, token string) (*models.User, error) {
	user, err := s.catalog.Users(s.catalog.DB).GetActiveByLocalUserID(ctx, localUserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: %s", common.ErrorUnregisteredRemoteUser, localUserID)
		}
		return nil, err
	}
	if token == "" {
		return user, nil
	}

	tokenUserID, err := s.users.Authenticate(token)
	if err != nil {
		return nil, err
	}
	if tokenUserID != user.ID {
		s.logger.Warn(ctx, "token does not match sync user", "local_user_id", localUserID, "token_user_id", tokenUserID)
		return nil, fmt.Errorf("%w: token belongs to another user", common.ErrorUnauthorized)
	}
	return user, nil
}
