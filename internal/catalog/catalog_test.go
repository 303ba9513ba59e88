package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/closetsync/internal/catalog/catalogtest"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), "sqlite", catalogtest.SQLiteDSN(filepath.Join(t.TempDir(), "c.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seed(t *testing.T, c *Catalog, userID string, imageIDs ...string) {
	t.Helper()
	ctx := context.Background()
	err := c.Users(c.DB).Create(ctx, &models.User{ID: userID, Username: userID, Email: userID + "@x", IsActive: true, CreatedAt: at})
	require.NoError(t, err)
	for _, id := range imageIDs {
		require.NoError(t, c.Images(c.DB).Insert(ctx, &models.Image{
			ID: id, UserID: userID, Filename: "primary_" + id + ".png", Category: category.Primary, SavedAt: at,
		}))
	}
}

func count(t *testing.T, c *Catalog, table string) int {
	t.Helper()
	var n int
	require.NoError(t, c.DB.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n))
	return n
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}

func TestOpen_PingFailureClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(driver, dsn string) (*sql.DB, error) { return db, nil }

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	_, err = Open(context.Background(), "pgx", "postgres://nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteImageCascade(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	seed(t, c, "u1", "x", "y")

	for _, f := range []*models.Favorite{
		{ID: "fx", UserID: "u1", ImageID: "x", CreatedAt: at},
		{ID: "fy", UserID: "u1", ImageID: "y", CreatedAt: at},
	} {
		_, err := c.Favorites(c.DB).Add(ctx, f)
		require.NoError(t, err)
	}
	for _, d := range []*models.DerivedAsset{
		{ID: "dx", UserID: "u1", ResultImageID: "x", CreatedAt: at},
		{ID: "dy", UserID: "u1", ResultImageID: "y", CreatedAt: at},
	} {
		require.NoError(t, c.Derived(c.DB).Insert(ctx, d))
	}

	img, err := c.DeleteImageCascade(ctx, "u1", "x")
	require.NoError(t, err)
	assert.Equal(t, "primary_x.png", img.Filename)

	assert.Equal(t, 1, count(t, c, "images"))
	assert.Equal(t, 1, count(t, c, "favorites"))
	assert.Equal(t, 1, count(t, c, "derived_assets"))

	_, err = c.Images(c.DB).GetByID(ctx, "u1", "y")
	require.NoError(t, err)
	favs, err := c.Favorites(c.DB).List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fy", favs[0].ID)

	_, err = c.DeleteImageCascade(ctx, "u1", "x")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestDeleteImageCascade_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	c := New(db, dbx.DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM images WHERE user_id = \$1 AND id = \$2`).
		WithArgs("u1", "x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "filename", "category", "original_url", "page_url",
			"page_title", "context_info", "file_size", "image_width", "image_height", "saved_at", "cloud_synced", "status"}).
			AddRow("x", "u1", "primary_x.png", "primary", "", "", "", "{}", int64(1), 1, 1, at, false, "active"))
	mock.ExpectExec(`DELETE FROM favorites WHERE image_id = \$1`).WithArgs("x").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM derived_assets WHERE result_image_id = \$1`).WithArgs("x").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = c.DeleteImageCascade(context.Background(), "u1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchDelete_PartialSuccess(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	seed(t, c, "u1", "a", "b")
	seed(t, c, "u2", "foreign")

	res := c.BatchDelete(ctx, "u1", []string{"a", "foreign", "b"})

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Messages, 3)
	assert.Len(t, res.Deleted, 2)
	assert.True(t, errors.Is(res.Err(), common.ErrorPartialFailure))

	n, err := c.Images(c.DB).Count(ctx, "u1", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = c.Images(c.DB).GetByID(ctx, "u2", "foreign")
	require.NoError(t, err)
}

func TestBatchDeleteResult_Err(t *testing.T) {
	assert.NoError(t, BatchDeleteResult{Succeeded: 2}.Err())
	assert.NoError(t, BatchDeleteResult{Failed: 2}.Err())
}
