// Package syncrecords stores one audit row per sync attempt.
package syncrecords

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

const columns = `id, user_id, sync_type, status, images_synced, images_failed, derived_synced, derived_failed,
	favorites_synced, favorites_failed, total_bytes, error_message, created_at`

func (r *SQLRepository) Insert(ctx context.Context, rec *models.SyncRecord) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sync_records (`+columns+`) VALUES (`+dbx.Placeholders(13)+`)`,
		rec.ID, rec.UserID, rec.SyncType, string(rec.Status), rec.ImagesSynced, rec.ImagesFailed,
		rec.DerivedSynced, rec.DerivedFailed, rec.FavoritesSynced, rec.FavoritesFailed,
		rec.TotalBytes, rec.ErrorMessage, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sync record: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.SyncRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM sync_records WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync records: %w", err)
	}
	defer rows.Close()

	result := []models.SyncRecord{}
	for rows.Next() {
		var (
			rec    models.SyncRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SyncType, &status, &rec.ImagesSynced, &rec.ImagesFailed,
			&rec.DerivedSynced, &rec.DerivedFailed, &rec.FavoritesSynced, &rec.FavoritesFailed,
			&rec.TotalBytes, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		rec.Status = models.SyncStatus(status)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync records: %w", err)
	}
	return result, nil
}
