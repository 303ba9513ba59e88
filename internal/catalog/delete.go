package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/models"
)

// DeleteImageCascade removes image id of userID together with every
// favorite referencing it and every derived-asset record it was produced
// by, all in one transaction. The deleted row is returned so the caller can
// remove the backing file afterwards.
func (c *Catalog) DeleteImageCascade(ctx context.Context, userID, id string) (*models.Image, error) {
	var deleted *models.Image

	err := c.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		img, err := c.Images(tx).GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if _, err := c.Favorites(tx).DeleteByImage(ctx, id); err != nil {
			return err
		}
		if _, err := c.Derived(tx).DeleteByResultImage(ctx, id); err != nil {
			return err
		}
		if err := c.Images(tx).Delete(ctx, userID, id); err != nil {
			return err
		}
		deleted = img
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: image %s does not exist or belongs to another user", common.ErrorNotFound, id)
		}
		return nil, fmt.Errorf("delete image %s: %w", id, err)
	}
	return deleted, nil
}

// BatchDeleteResult reports a batch delete item by item.
type BatchDeleteResult struct {
	Succeeded int            `json:"success_count"`
	Failed    int            `json:"fail_count"`
	Messages  []string       `json:"messages"`
	Deleted   []models.Image `json:"-"`
}

// Err returns common.ErrorPartialFailure when some but not all items
// failed, and nil otherwise.
func (r BatchDeleteResult) Err() error {
	if r.Failed > 0 && r.Succeeded > 0 {
		return fmt.Errorf("%w: %d of %d deletions failed", common.ErrorPartialFailure, r.Failed, r.Failed+r.Succeeded)
	}
	return nil
}

// BatchDelete applies DeleteImageCascade to every id. Each id commits or
// fails on its own; the loop never stops early.
func (c *Catalog) BatchDelete(ctx context.Context, userID string, ids []string) BatchDeleteResult {
	res := BatchDeleteResult{Messages: make([]string, 0, len(ids))}
	for _, id := range ids {
		img, err := c.DeleteImageCascade(ctx, userID, id)
		if err != nil {
			res.Failed++
			res.Messages = append(res.Messages, err.Error())
			continue
		}
		res.Succeeded++
		res.Deleted = append(res.Deleted, *img)
		res.Messages = append(res.Messages, fmt.Sprintf("image %s deleted", id))
	}
	return res
}
