package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// Ingester merges snapshots into the cloud node's catalog and asset store.
type Ingester struct {
	catalog *catalog.Catalog
	store   assets.Store
	logger  logging.Logger
}

func NewIngester(c *catalog.Catalog, store assets.Store, logger logging.Logger) *Ingester {
	return &Ingester{catalog: c, store: store, logger: logger}
}

// Ingest stores snap for the cloud user linked to localUserID. Every record
// is upserted by id, so delivering the same snapshot twice leaves the same
// state as delivering it once. Per-record failures are counted and reported
// in the result; they do not abort the batch.
//
// An unknown local user yields common.ErrorUnregisteredRemoteUser and writes
// nothing. Any other error after the user is resolved writes a failed audit
// record before it is returned.
func (in *Ingester) Ingest(ctx context.Context, localUserID string, snap *Snapshot) (_ *IngestResult, err error) {
	if snap == nil {
		return nil, common.Validationf("no sync data received")
	}

	db := in.catalog.DB
	user, err := in.catalog.Users(db).GetActiveByLocalUserID(ctx, localUserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			in.logger.Warn(ctx, "sync from unregistered user", "local_user_id", localUserID)
			return nil, fmt.Errorf("%w: %s", common.ErrorUnregisteredRemoteUser, localUserID)
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	res := &IngestResult{
		CloudUserID:   user.ID,
		TotalImages:   len(snap.Images),
		SyncTimestamp: snap.SyncTimestamp,
	}

	defer func() {
		if err == nil {
			return
		}
		rec := in.record(user.ID, res)
		rec.Status = models.SyncStatusFailed
		rec.ErrorMessage = err.Error()
		if aerr := in.catalog.SyncRecords(db).Insert(context.WithoutCancel(ctx), rec); aerr != nil {
			in.logger.Error(ctx, "write failed sync record", "user_id", user.ID, "error", aerr)
		}
	}()

	stored := make(map[string]bool, len(snap.Images))
	for i := range snap.Images {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, ierr := in.ingestImage(ctx, user.ID, snap.Images[i], snap.ImageFiles)
		if ierr != nil {
			in.logger.Warn(ctx, "image not ingested", "user_id", user.ID, "image_id", snap.Images[i].ID,
				"filename", snap.Images[i].Filename, "error", ierr)
			res.ImagesFailed++
			continue
		}
		stored[snap.Images[i].ID] = true
		res.ImagesSynced++
		res.TotalBytes += n
	}

	for _, rec := range snap.Derived {
		rec.UserID = user.ID
		if derr := in.resultImagePresent(ctx, user.ID, rec.ResultImageID, stored); derr != nil {
			in.logger.Warn(ctx, "derived asset not ingested", "user_id", user.ID, "id", rec.ID, "error", derr)
			res.DerivedFailed++
			continue
		}
		ok, derr := in.catalog.Derived(db).Upsert(ctx, &rec)
		if derr != nil || !ok {
			in.logger.Warn(ctx, "derived asset not ingested", "user_id", user.ID, "id", rec.ID, "error", derr)
			res.DerivedFailed++
			continue
		}
		res.DerivedSynced++
	}

	for _, fav := range snap.Favorites {
		fav.UserID = user.ID
		ok, ferr := in.catalog.Favorites(db).Upsert(ctx, &fav)
		if ferr != nil || !ok {
			in.logger.Warn(ctx, "favorite not ingested", "user_id", user.ID, "id", fav.ID, "error", ferr)
			res.FavoritesFailed++
			continue
		}
		res.FavoritesSynced++
	}

	count, bytes, err := in.catalog.Images(db).Totals(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("image totals: %w", err)
	}
	if err := in.catalog.Users(db).UpdateSyncStats(ctx, user.ID, count, bytes, timex.Now()); err != nil {
		return nil, fmt.Errorf("update user stats: %w", err)
	}

	res.Status = models.SyncStatusCompleted
	if res.Failed() > 0 {
		res.Status = models.SyncStatusPartial
	}

	rec := in.record(user.ID, res)
	if res.Status == models.SyncStatusPartial {
		rec.ErrorMessage = fmt.Sprintf("%d images, %d derived assets, %d favorites failed",
			res.ImagesFailed, res.DerivedFailed, res.FavoritesFailed)
	}
	if err := in.catalog.SyncRecords(db).Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("write sync record: %w", err)
	}

	res.Success = true
	res.SyncID = rec.ID
	res.ServerTimestamp = rec.CreatedAt

	in.logger.Info(ctx, "sync ingested", "user_id", user.ID, "local_user_id", localUserID, "status", res.Status,
		"images_synced", res.ImagesSynced, "images_failed", res.ImagesFailed)
	return res, nil
}

// ingestImage writes one image file and upserts its row, returning the
// number of bytes stored.
func (in *Ingester) ingestImage(ctx context.Context, userID string, img models.Image, files map[string]string) (int64, error) {
	if img.Filename == "" {
		return 0, common.Validationf("image %s has no filename", img.ID)
	}
	blob, ok := files[img.Filename]
	if !ok || blob == "" {
		return 0, fmt.Errorf("%w: file data for %s", common.ErrorNotFound, img.Filename)
	}
	_, data, err := assets.DecodeDataURL(blob)
	if err != nil {
		return 0, err
	}

	c := resolveCategory(img)
	if err := in.store.Replace(ctx, userID, c, img.Filename, data); err != nil {
		return 0, fmt.Errorf("store file: %w", err)
	}

	img.UserID = userID
	img.Category = c
	img.CloudSynced = true
	if img.FileSize == 0 {
		img.FileSize = int64(len(data))
	}
	if img.Status == "" {
		img.Status = models.ImageStatusActive
	}

	ok, err = in.catalog.Images(in.catalog.DB).Upsert(ctx, &img)
	if err == nil && !ok {
		err = fmt.Errorf("%w: image id %s belongs to another user", common.ErrorAlreadyExists, img.ID)
	}
	if err != nil {
		in.dropOrphan(ctx, userID, c, img.Filename)
		return 0, err
	}
	return int64(len(data)), nil
}

// dropOrphan removes a file written for a rejected row, unless an existing
// row of the user still refers to that filename.
func (in *Ingester) dropOrphan(ctx context.Context, userID string, c category.Category, filename string) {
	_, err := in.catalog.Images(in.catalog.DB).FindByFilename(ctx, userID, filename)
	if !errors.Is(err, common.ErrorNotFound) {
		return
	}
	if derr := in.store.Delete(ctx, userID, filename, c); derr != nil {
		in.logger.Warn(ctx, "orphan file not removed", "user_id", userID, "filename", filename, "error", derr)
	}
}

// resultImagePresent reports an error unless id names an image of the user
// that was stored by this ingest or already exists in the catalog.
func (in *Ingester) resultImagePresent(ctx context.Context, userID, id string, stored map[string]bool) error {
	if id == "" {
		return common.Validationf("derived asset has no result image")
	}
	if stored[id] {
		return nil
	}
	if _, err := in.catalog.Images(in.catalog.DB).GetByID(ctx, userID, id); err != nil {
		return fmt.Errorf("result image %s: %w", id, err)
	}
	return nil
}

// resolveCategory picks the storage category of an incoming image: the
// explicit field, then context_info["category"], then the filename prefix.
func resolveCategory(img models.Image) category.Category {
	if c, ok := category.Parse(string(img.Category)); ok {
		return c
	}
	if v, ok := img.ContextInfo["category"].(string); ok {
		if c, ok := category.Parse(v); ok {
			return c
		}
	}
	return category.Infer(img.Filename)
}

func (in *Ingester) record(userID string, res *IngestResult) *models.SyncRecord {
	return &models.SyncRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		SyncType:        models.SyncTypeIngest,
		ImagesSynced:    res.ImagesSynced,
		ImagesFailed:    res.ImagesFailed,
		DerivedSynced:   res.DerivedSynced,
		DerivedFailed:   res.DerivedFailed,
		FavoritesSynced: res.FavoritesSynced,
		FavoritesFailed: res.FavoritesFailed,
		TotalBytes:      res.TotalBytes,
		CreatedAt:       timex.Now(),
	}
}
