// Package favorites stores the user to image favorite joins.
package favorites

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func favoriteType(fav *models.Favorite) string {
	if fav.FavoriteType == "" {
		return models.FavoriteTypeImage
	}
	return fav.FavoriteType
}

func (r *SQLRepository) affected(ctx context.Context, what, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s favorite: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Add(ctx context.Context, fav *models.Favorite) (bool, error) {
	n, err := r.affected(ctx, "add",
		`INSERT INTO favorites (id, user_id, image_id, favorite_type, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, image_id, favorite_type) DO NOTHING`,
		fav.ID, fav.UserID, fav.ImageID, favoriteType(fav), fav.CreatedAt)
	return n > 0, err
}

func (r *SQLRepository) Remove(ctx context.Context, userID, imageID, favType string) (bool, error) {
	n, err := r.affected(ctx, "remove",
		`DELETE FROM favorites WHERE user_id = ? AND image_id = ? AND favorite_type = ?`, userID, imageID, favType)
	return n > 0, err
}

func (r *SQLRepository) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, image_id, favorite_type, created_at FROM favorites WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select favorites: %w", err)
	}
	defer rows.Close()

	result := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ImageID, &f.FavoriteType, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Upsert(ctx context.Context, fav *models.Favorite) (bool, error) {
	ft := favoriteType(fav)
	if _, err := r.affected(ctx, "replace",
		`DELETE FROM favorites WHERE user_id = ? AND image_id = ? AND favorite_type = ? AND id <> ?`,
		fav.UserID, fav.ImageID, ft, fav.ID); err != nil {
		return false, err
	}

	n, err := r.affected(ctx, "upsert",
		`INSERT INTO favorites (id, user_id, image_id, favorite_type, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			image_id = excluded.image_id,
			favorite_type = excluded.favorite_type,
			created_at = excluded.created_at
		WHERE favorites.user_id = excluded.user_id`,
		fav.ID, fav.UserID, fav.ImageID, ft, fav.CreatedAt)
	return n > 0, err
}

func (r *SQLRepository) DeleteByImage(ctx context.Context, imageID string) (int64, error) {
	return r.affected(ctx, "delete", `DELETE FROM favorites WHERE image_id = ?`, imageID)
}
