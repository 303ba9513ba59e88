package syncrecords

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/closetsync/internal/catalog/catalogtest"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndListRecent(t *testing.T) {
	r := NewSQLRepository(catalogtest.NewSQLite(t))
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, r.Insert(ctx, &models.SyncRecord{
			ID:           fmt.Sprintf("s%d", i),
			UserID:       "c1",
			SyncType:     models.SyncTypeIngest,
			Status:       models.SyncStatusPartial,
			ImagesSynced: i,
			ImagesFailed: 1,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := r.ListRecent(ctx, "c1", 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "s6", recent[0].ID)
	assert.Equal(t, 6, recent[0].ImagesSynced)
	assert.Equal(t, models.SyncStatusPartial, recent[0].Status)

	none, err := r.ListRecent(ctx, "other", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostgres_Insert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLRepository(dbx.Rebound(db, dbx.DialectPostgres))

	mock.ExpectExec(`(?s)INSERT INTO sync_records \(.+\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8,\$9,\$10,\$11,\$12,\$13\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Insert(context.Background(), &models.SyncRecord{ID: "s1", UserID: "c1", Status: models.SyncStatusFailed}))
	require.NoError(t, mock.ExpectationsWereMet())
}
