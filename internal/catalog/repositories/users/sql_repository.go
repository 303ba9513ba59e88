// Package users stores user accounts of either node.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const selectColumns = `SELECT id, username, email, password_hash, local_user_id, cloud_token,
	image_count, storage_bytes, is_active, created_at, last_login, last_sync_at
	FROM users`

func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, local_user_id, cloud_token, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	localID := sql.NullString{String: user.LocalUserID, Valid: user.LocalUserID != ""}

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, localID, user.CloudToken, user.IsActive, user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: username or email is taken", common.ErrorAlreadyExists)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		u         models.User
		localID   sql.NullString
		lastLogin sql.NullTime
		lastSync  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, selectColumns+" WHERE "+where, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &localID, &u.CloudToken,
		&u.ImageCount, &u.StorageBytes, &u.IsActive, &u.CreatedAt, &lastLogin, &lastSync)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.LocalUserID = localID.String
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if lastSync.Valid {
		u.LastSyncAt = &lastSync.Time
	}
	return &u, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = ?", username)
}

func (r *SQLRepository) GetActiveByLocalUserID(ctx context.Context, localUserID string) (*models.User, error) {
	return r.getOne(ctx, "local_user_id = ? AND is_active = TRUE", localUserID)
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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

func (r *SQLRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at, id)
}

func (r *SQLRepository) SetCloudToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `UPDATE users SET cloud_token = ? WHERE id = ?`, token, id)
}

func (r *SQLRepository) UpdateSyncStats(ctx context.Context, id string, imageCount, storageBytes int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET image_count = ?, storage_bytes = ?, last_sync_at = ? WHERE id = ?`,
		imageCount, storageBytes, at, id)
}
