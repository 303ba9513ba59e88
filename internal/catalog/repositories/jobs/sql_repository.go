// Package jobs stores background job records.
package jobs

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

const columns = `id, user_id, image_id, kind, status, message, created_at, updated_at`

func (r *SQLRepository) Insert(ctx context.Context, job *models.Job) error {
	query := `INSERT INTO jobs (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, job.ID, job.UserID, job.ImageID, job.Kind, string(job.Status), job.Message,
		job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Job, error) {
	var (
		j      models.Job
		status string
	)
	if err := s.Scan(&j.ID, &j.UserID, &j.ImageID, &j.Kind, &status, &j.Message, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = models.JobStatus(status)
	return &j, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	j, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM jobs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus, message string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		string(status), message, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM jobs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select jobs: %w", err)
	}
	defer rows.Close()

	result := []models.Job{}
	for rows.Next() {
		j, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		result = append(result, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return result, nil
}
