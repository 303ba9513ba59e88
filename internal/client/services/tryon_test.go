package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/client/tryon"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out        []byte
	err        error
	gotSubject []byte
	gotPrimary []byte
}

func (f *fakeGenerator) Generate(_ context.Context, subject, primary []byte, params map[string]any) (*tryon.Result, error) {
	f.gotSubject, f.gotPrimary = subject, primary
	if f.err != nil {
		return nil, f.err
	}
	return &tryon.Result{Data: f.out, ProcessingTime: 1.5, Parameters: params}, nil
}

func TestTryOn_GenerateRecordsResult(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")
	now := time.Now().UTC()
	subject := seedImage(t, e, "u1", "s", category.Subject, now)
	// stored under the wrong category on purpose: lookup falls back
	primary := seedImage(t, e, "u1", "p", category.Derived, now)

	ctx := context.Background()
	_, err := e.catalog.DB.ExecContext(ctx, `UPDATE images SET original_url = ? WHERE id = ?`, "https://shop.example/p.jpg", primary.ID)
	require.NoError(t, err)

	gen := &fakeGenerator{out: pngBytes(t, 5, 5)}
	svc := NewTryOnService(e.catalog, e.store, gen, logging.NewDiscardLogger())

	rec, err := svc.Generate(ctx, TryOnRequest{
		UserID: "u1", SubjectFilename: subject.Filename, PrimaryFilename: primary.Filename,
		Parameters: map[string]any{"steps": float64(20)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, gen.gotSubject)
	assert.NotEmpty(t, gen.gotPrimary)
	assert.Equal(t, 1.5, rec.ProcessingTime)

	img, err := e.catalog.Images(e.catalog.DB).GetByID(ctx, "u1", rec.ResultImageID)
	require.NoError(t, err)
	assert.Equal(t, category.Derived, img.Category)
	assert.Equal(t, 5, img.Width)
	assert.Equal(t, subject.ID, img.ContextInfo["subject_image_id"])
	assert.Equal(t, primary.ID, img.ContextInfo["primary_image_id"])
	assert.Equal(t, "https://shop.example/p.jpg", img.ContextInfo["primary_original_url"])
	assert.Equal(t, "", img.ContextInfo["subject_original_url"])

	data, found, err := e.store.Get(ctx, "u1", rec.ResultFilename, category.Derived)
	require.NoError(t, err)
	assert.Equal(t, category.Derived, found)
	assert.Equal(t, gen.out, data)

	history, total, err := svc.History(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)
	assert.Equal(t, float64(20), history[0].Parameters["steps"])
}

func TestTryOn_Failures(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")
	now := time.Now().UTC()
	subject := seedImage(t, e, "u1", "s", category.Subject, now)
	primary := seedImage(t, e, "u1", "p", category.Primary, now)
	ctx := context.Background()

	svc := NewTryOnService(e.catalog, e.store, &fakeGenerator{out: pngBytes(t, 1, 1)}, logging.NewDiscardLogger())

	_, err := svc.Generate(ctx, TryOnRequest{UserID: "u1", SubjectFilename: subject.Filename})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Generate(ctx, TryOnRequest{UserID: "u1", SubjectFilename: "nope.png", PrimaryFilename: primary.Filename})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	disabled := NewTryOnService(e.catalog, e.store, tryon.Disabled{}, logging.NewDiscardLogger())
	_, err = disabled.Generate(ctx, TryOnRequest{UserID: "u1", SubjectFilename: subject.Filename, PrimaryFilename: primary.Filename})
	assert.ErrorIs(t, err, tryon.ErrDisabled)

	failing := NewTryOnService(e.catalog, e.store, &fakeGenerator{err: errors.New("gpu on fire")}, logging.NewDiscardLogger())
	_, err = failing.Generate(ctx, TryOnRequest{UserID: "u1", SubjectFilename: subject.Filename, PrimaryFilename: primary.Filename})
	require.Error(t, err)

	files, err := e.store.ListFileInfo(ctx, "u1", category.Derived)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestTryOn_SourceWithoutCatalogRow(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "u1")
	ctx := context.Background()
	subject := seedImage(t, e, "u1", "s", category.Subject, time.Now().UTC())
	loose, err := e.store.Put(ctx, "u1", category.Primary, pngBytes(t, 2, 2))
	require.NoError(t, err)

	gen := &fakeGenerator{out: pngBytes(t, 1, 1)}
	rec, err := NewTryOnService(e.catalog, e.store, gen, logging.NewDiscardLogger()).Generate(ctx, TryOnRequest{
		UserID: "u1", SubjectFilename: subject.Filename, PrimaryFilename: loose,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, gen.gotPrimary)

	img, err := e.catalog.Images(e.catalog.DB).GetByID(ctx, "u1", rec.ResultImageID)
	require.NoError(t, err)
	assert.Equal(t, "", img.ContextInfo["primary_image_id"])
	assert.Equal(t, subject.ID, img.ContextInfo["subject_image_id"])
}
