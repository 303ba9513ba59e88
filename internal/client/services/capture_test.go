package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapture(e *env) CaptureService {
	return NewCaptureService(e.catalog, e.store, e.tracker, CaptureOptions{
		FetchTimeout: time.Second,
		MaxBytes:     1 << 20,
		JobDelay:     10 * time.Millisecond,
	}, logging.NewDiscardLogger())
}

func TestCapture_DataURL(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")
	svc := newCapture(e)
	ctx := context.Background()
	data := pngBytes(t, 4, 3)

	res, err := svc.Capture(ctx, CaptureRequest{
		UserID:      "u1",
		ImageURL:    assets.EncodeDataURL("image/png", data),
		OriginalURL: "https://shop.example/item.png",
		PageURL:     "https://shop.example/item",
		PageTitle:   "Item",
		Category:    "subject",
		ContextInfo: map[string]any{"alt": "model"},
	})
	require.NoError(t, err)
	assert.Equal(t, category.Subject, res.Category)
	assert.Equal(t, int64(len(data)), res.FileSize)
	assert.Equal(t, 4, res.Width)
	assert.Equal(t, 3, res.Height)

	stored, found, err := e.store.Get(ctx, "u1", res.Filename, category.Subject)
	require.NoError(t, err)
	assert.Equal(t, category.Subject, found)
	assert.Equal(t, data, stored)

	img, err := e.catalog.Images(e.catalog.DB).GetByID(ctx, "u1", res.ImageID)
	require.NoError(t, err)
	assert.Equal(t, "model", img.ContextInfo["alt"])
	assert.Equal(t, "subject", img.ContextInfo["category"])
	assert.Equal(t, SourceExtension, img.ContextInfo["source"])
	assert.False(t, img.CloudSynced)

	job := e.waitJob(t, res.JobID)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, res.ImageID, job.ImageID)
}

func TestCapture_InvalidCategoryDegradesToPrimary(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")

	res, err := newCapture(e).Capture(context.Background(), CaptureRequest{
		UserID: "u1", Data: pngBytes(t, 1, 1), Category: "../../etc", Source: SourceUpload,
	})
	require.NoError(t, err)
	assert.Equal(t, category.Primary, res.Category)
}

func TestCapture_FetchesRemoteURL(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")
	data := pngBytes(t, 2, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	svc := newCapture(e)
	ctx := context.Background()

	res, err := svc.Capture(ctx, CaptureRequest{UserID: "u1", ImageURL: srv.URL + "/ok.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), res.FileSize)

	_, err = svc.Capture(ctx, CaptureRequest{UserID: "u1", ImageURL: srv.URL + "/missing.png"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCapture_RejectsBadInput(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")
	svc := NewCaptureService(e.catalog, e.store, e.tracker, CaptureOptions{MaxBytes: 8}, logging.NewDiscardLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		req  CaptureRequest
	}{
		{"no data", CaptureRequest{UserID: "u1"}},
		{"bad base64", CaptureRequest{UserID: "u1", ImageURL: "data:image/png;base64,!!!"}},
		{"unsupported scheme", CaptureRequest{UserID: "u1", ImageURL: "ftp://host/a.png"}},
		{"too large", CaptureRequest{UserID: "u1", Data: make([]byte, 9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Capture(ctx, tt.req)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestCapture_FailedInsertRemovesFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := newCapture(e).Capture(ctx, CaptureRequest{UserID: "ghost", Data: pngBytes(t, 1, 1)})
	require.Error(t, err)

	files, err := e.store.ListFileInfo(ctx, "ghost", category.Primary)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCapture_JobLookup(t *testing.T) {
	e := newEnv(t)
	_, err := newCapture(e).Job(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
