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
	"github.com/dmitrijs2005/closetsync/internal/timex"
)

// Builder assembles snapshots from a catalog and an asset store.
type Builder struct {
	catalog *catalog.Catalog
	store   assets.Store
	logger  logging.Logger
}

func NewBuilder(c *catalog.Catalog, store assets.Store, logger logging.Logger) *Builder {
	return &Builder{catalog: c, store: store, logger: logger}
}

// Build reads every image, derived asset and favorite of userID and the bytes
// of every image file it can find. A missing file is counted, not fatal.
func (b *Builder) Build(ctx context.Context, userID string) (*Snapshot, error) {
	db := b.catalog.DB

	user, err := b.catalog.Users(db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	images, err := b.catalog.Images(db).ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	derived, err := b.catalog.Derived(db).ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list derived assets: %w", err)
	}
	favorites, err := b.catalog.Favorites(db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	snap := &Snapshot{
		UserInfo: UserInfo{
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Images:        images,
		ImageFiles:    make(map[string]string, len(images)),
		Derived:       derived,
		Favorites:     favorites,
		SyncTimestamp: timex.Now(),
		Statistics: Statistics{
			TotalMetadata:     len(images),
			CategoryBreakdown: make(map[category.Category]int, len(category.All)),
		},
	}

	for _, img := range images {
		data, found, err := b.store.Get(ctx, userID, img.Filename, img.Category)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrorValidation) {
				return nil, fmt.Errorf("read %s: %w", img.Filename, err)
			}
			b.logger.Warn(ctx, "image file missing from snapshot", "user_id", userID, "image_id", img.ID, "filename", img.Filename)
			snap.Statistics.Missing++
			snap.Statistics.MissingFiles = append(snap.Statistics.MissingFiles, img.Filename)
			continue
		}

		snap.ImageFiles[img.Filename] = assets.EncodeDataURL(assets.MIMETypeFor(img.Filename), data)
		snap.included = append(snap.included, img.ID)
		snap.Statistics.Found++
		snap.Statistics.TotalBytes += int64(len(data))
		snap.Statistics.CategoryBreakdown[found]++
	}

	return snap, nil
}
