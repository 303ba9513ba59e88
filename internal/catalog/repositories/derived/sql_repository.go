// Package derived stores the try-on history.
package derived

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

const columns = `id, user_id, subject_filename, primary_filename, result_image_id, result_filename,
	parameters, processing_time, created_at`

func args(rec *models.DerivedAsset) ([]any, error) {
	params, err := dbx.EncodeMap(rec.Parameters)
	if err != nil {
		return nil, err
	}
	return []any{rec.ID, rec.UserID, rec.SubjectFilename, rec.PrimaryFilename, rec.ResultImageID, rec.ResultFilename,
		params, rec.ProcessingTime, rec.CreatedAt}, nil
}

func (r *SQLRepository) Insert(ctx context.Context, rec *models.DerivedAsset) error {
	a, err := args(rec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO derived_assets (`+columns+`) VALUES (`+dbx.Placeholders(len(a))+`)`, a...); err != nil {
		return fmt.Errorf("failed to insert derived asset: %w", err)
	}
	return nil
}

func (r *SQLRepository) Upsert(ctx context.Context, rec *models.DerivedAsset) (bool, error) {
	a, err := args(rec)
	if err != nil {
		return false, err
	}
	query := `INSERT INTO derived_assets (` + columns + `) VALUES (` + dbx.Placeholders(len(a)) + `)
		ON CONFLICT (id) DO UPDATE SET
			subject_filename = excluded.subject_filename,
			primary_filename = excluded.primary_filename,
			result_image_id = excluded.result_image_id,
			result_filename = excluded.result_filename,
			parameters = excluded.parameters,
			processing_time = excluded.processing_time,
			created_at = excluded.created_at
		WHERE derived_assets.user_id = excluded.user_id`

	res, err := r.db.ExecContext(ctx, query, a...)
	if err != nil {
		return false, fmt.Errorf("failed to upsert derived asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) query(ctx context.Context, query string, a ...any) ([]models.DerivedAsset, error) {
	rows, err := r.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("failed to select derived assets: %w", err)
	}
	defer rows.Close()

	result := []models.DerivedAsset{}
	for rows.Next() {
		var (
			rec    models.DerivedAsset
			params string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SubjectFilename, &rec.PrimaryFilename, &rec.ResultImageID,
			&rec.ResultFilename, &params, &rec.ProcessingTime, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan derived asset: %w", err)
		}
		if rec.Parameters, err = dbx.DecodeMap(params); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate derived assets: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) List(ctx context.Context, userID string, limit, offset int) ([]models.DerivedAsset, error) {
	return r.query(ctx, `SELECT `+columns+` FROM derived_assets WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		userID, limit, offset)
}

func (r *SQLRepository) ListAll(ctx context.Context, userID string) ([]models.DerivedAsset, error) {
	return r.query(ctx, `SELECT `+columns+` FROM derived_assets WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
}

func (r *SQLRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM derived_assets WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count derived assets: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) DeleteByResultImage(ctx context.Context, imageID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM derived_assets WHERE result_image_id = ?`, imageID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete derived assets: %w", err)
	}
	return res.RowsAffected()
}
