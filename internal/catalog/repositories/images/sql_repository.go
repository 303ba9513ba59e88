// Package images stores image metadata rows.
package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const columns = `id, user_id, filename, category, original_url, page_url, page_title, context_info,
	file_size, image_width, image_height, saved_at, cloud_synced, status`

func args(img *models.Image) ([]any, error) {
	ctxInfo, err := dbx.EncodeMap(img.ContextInfo)
	if err != nil {
		return nil, err
	}
	status := img.Status
	if status == "" {
		status = models.ImageStatusActive
	}
	return []any{img.ID, img.UserID, img.Filename, string(img.Category), img.OriginalURL, img.PageURL, img.PageTitle,
		ctxInfo, img.FileSize, img.Width, img.Height, img.SavedAt, img.CloudSynced, string(status)}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Image, error) {
	var (
		img     models.Image
		cat     string
		status  string
		ctxInfo string
	)
	if err := s.Scan(&img.ID, &img.UserID, &img.Filename, &cat, &img.OriginalURL, &img.PageURL, &img.PageTitle,
		&ctxInfo, &img.FileSize, &img.Width, &img.Height, &img.SavedAt, &img.CloudSynced, &status); err != nil {
		return nil, err
	}
	m, err := dbx.DecodeMap(ctxInfo)
	if err != nil {
		return nil, err
	}
	img.Category = category.Category(cat)
	img.Status = models.ImageStatus(status)
	img.ContextInfo = m
	return &img, nil
}

func (r *SQLRepository) Insert(ctx context.Context, img *models.Image) error {
	a, err := args(img)
	if err != nil {
		return err
	}
	query := `INSERT INTO images (` + columns + `) VALUES (` + dbx.Placeholders(len(a)) + `)`
	if _, err := r.db.ExecContext(ctx, query, a...); err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: image %s", common.ErrorAlreadyExists, img.Filename)
		}
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func (r *SQLRepository) Upsert(ctx context.Context, img *models.Image) (bool, error) {
	a, err := args(img)
	if err != nil {
		return false, err
	}
	query := `INSERT INTO images (` + columns + `) VALUES (` + dbx.Placeholders(len(a)) + `)
		ON CONFLICT (id) DO UPDATE SET
			filename = excluded.filename,
			category = excluded.category,
			original_url = excluded.original_url,
			page_url = excluded.page_url,
			page_title = excluded.page_title,
			context_info = excluded.context_info,
			file_size = excluded.file_size,
			image_width = excluded.image_width,
			image_height = excluded.image_height,
			saved_at = excluded.saved_at,
			cloud_synced = excluded.cloud_synced,
			status = excluded.status
		WHERE images.user_id = excluded.user_id`

	res, err := r.db.ExecContext(ctx, query, a...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return false, fmt.Errorf("%w: image %s", common.ErrorAlreadyExists, img.Filename)
		}
		return false, fmt.Errorf("failed to upsert image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, userID, id string) (*models.Image, error) {
	query := `SELECT ` + columns + ` FROM images WHERE user_id = ? AND id = ?`
	img, err := scan(r.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (r *SQLRepository) FindByFilename(ctx context.Context, userID, filename string) (*models.Image, error) {
	query := `SELECT ` + columns + ` FROM images WHERE user_id = ? AND filename = ?
		ORDER BY saved_at DESC LIMIT 1`
	img, err := scan(r.db.QueryRowContext(ctx, query, userID, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to find image: %w", err)
	}
	return img, nil
}

func (r *SQLRepository) query(ctx context.Context, query string, a ...any) ([]models.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	defer rows.Close()

	result := []models.Image{}
	for rows.Next() {
		img, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		result = append(result, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) List(ctx context.Context, userID string, c category.Category, limit, offset int) ([]models.Image, error) {
	where, a := filter(userID, c)
	query := `SELECT ` + columns + ` FROM images WHERE ` + where + ` ORDER BY saved_at DESC, id LIMIT ? OFFSET ?`
	return r.query(ctx, query, append(a, limit, offset)...)
}

func (r *SQLRepository) ListAll(ctx context.Context, userID string) ([]models.Image, error) {
	query := `SELECT ` + columns + ` FROM images WHERE user_id = ? ORDER BY saved_at DESC, id`
	return r.query(ctx, query, userID)
}

func filter(userID string, c category.Category) (string, []any) {
	if c == "" {
		return "user_id = ?", []any{userID}
	}
	return "user_id = ? AND category = ?", []any{userID, string(c)}
}

func (r *SQLRepository) Count(ctx context.Context, userID string, c category.Category) (int64, error) {
	where, a := filter(userID, c)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE `+where, a...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Totals(ctx context.Context, userID string) (int64, int64, error) {
	var count, bytes int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), CAST(COALESCE(SUM(file_size), 0) AS BIGINT) FROM images WHERE user_id = ?`, userID).
		Scan(&count, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to total images: %w", err)
	}
	return count, bytes, nil
}

func (r *SQLRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) MarkSynced(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	a := make([]any, 0, len(ids)+1)
	a = append(a, userID)
	for _, id := range ids {
		a = append(a, id)
	}
	query := `UPDATE images SET cloud_synced = TRUE WHERE user_id = ? AND id IN (` + dbx.Placeholders(len(ids)) + `)`
	res, err := r.db.ExecContext(ctx, query, a...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark images synced: %w", err)
	}
	return res.RowsAffected()
}
