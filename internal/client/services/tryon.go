package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/client/tryon"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// TryOnRequest names the two source images by filename.
type TryOnRequest struct {
	UserID          string
	SubjectFilename string
	PrimaryFilename string
	Parameters      map[string]any
}

// TryOnService produces derived images and keeps their history.
type TryOnService interface {
	Generate(ctx context.Context, req TryOnRequest) (*models.DerivedAsset, error)
	History(ctx context.Context, userID string, page, perPage int) ([]models.DerivedAsset, int64, error)
}

type tryOnService struct {
	catalog   *catalog.Catalog
	store     assets.Store
	generator tryon.Generator
	logger    logging.Logger
}

func NewTryOnService(c *catalog.Catalog, store assets.Store, g tryon.Generator, logger logging.Logger) TryOnService {
	return &tryOnService{catalog: c, store: store, generator: g, logger: logger.With("service", "tryon")}
}

func (s *tryOnService) Generate(ctx context.Context, req TryOnRequest) (*models.DerivedAsset, error) {
	req.SubjectFilename = strings.TrimSpace(req.SubjectFilename)
	req.PrimaryFilename = strings.TrimSpace(req.PrimaryFilename)
	if req.SubjectFilename == "" || req.PrimaryFilename == "" {
		return nil, common.Validationf("subject and primary filenames are required")
	}

	subject, err := s.source(ctx, req.UserID, req.SubjectFilename, category.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject image: %w", err)
	}
	primary, err := s.source(ctx, req.UserID, req.PrimaryFilename, category.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary image: %w", err)
	}

	out, err := s.generator.Generate(ctx, subject.data, primary.data, req.Parameters)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	filename, err := s.store.Put(ctx, req.UserID, category.Derived, out.Data)
	if err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}

	now := timex.Now()
	width, height := assets.Dimensions(out.Data)
	img := &models.Image{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Filename:    filename,
		Category:    category.Derived,
		OriginalURL: "tryon",
		PageTitle:   fmt.Sprintf("Try-on: %s + %s", req.SubjectFilename, req.PrimaryFilename),
		ContextInfo: map[string]any{
			"category":         string(category.Derived),
			"source":           "tryon",
			"subject_filename":     req.SubjectFilename,
			"primary_filename":     req.PrimaryFilename,
			"subject_image_id":     subject.id,
			"primary_image_id":     primary.id,
			"subject_original_url": subject.originalURL,
			"primary_original_url": primary.originalURL,
		},
		FileSize: int64(len(out.Data)),
		Width:    width,
		Height:   height,
		SavedAt:  now,
		Status:   models.ImageStatusActive,
	}
	params := out.Parameters
	if params == nil {
		params = req.Parameters
	}
	rec := &models.DerivedAsset{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		SubjectFilename: req.SubjectFilename,
		PrimaryFilename: req.PrimaryFilename,
		ResultImageID:   img.ID,
		ResultFilename:  filename,
		Parameters:      params,
		ProcessingTime:  out.ProcessingTime,
		CreatedAt:       now,
	}

	err = s.catalog.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.catalog.Images(tx).Insert(ctx, img); err != nil {
			return err
		}
		return s.catalog.Derived(tx).Insert(ctx, rec)
	})
	if err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), req.UserID, filename, category.Derived); derr != nil {
			s.logger.Error(ctx, "orphaned derived file", "filename", filename, "error", derr)
		}
		return nil, fmt.Errorf("record try-on: %w", err)
	}

	s.logger.Info(ctx, "try-on generated", "user_id", req.UserID, "result", filename, "processing_time", out.ProcessingTime)
	return rec, nil
}

// sourceImage is one input of a try-on with the provenance of its row.
type sourceImage struct {
	id          string
	originalURL string
	data        []byte
}

// source loads filename using the category recorded in the catalog. A file
// with no catalog row is still accepted and looked up under fallback.
func (s *tryOnService) source(ctx context.Context, userID, filename string, fallback category.Category) (*sourceImage, error) {
	src := &sourceImage{}
	declared := fallback
	img, err := s.catalog.Images(s.catalog.DB).FindByFilename(ctx, userID, filename)
	switch {
	case err == nil:
		src.id, src.originalURL = img.ID, img.OriginalURL
		declared = img.Category
	case errors.Is(err, common.ErrorNotFound):
		s.logger.Warn(ctx, "try-on source has no catalog row", "user_id", userID, "filename", filename)
	default:
		return nil, err
	}

	src.data, _, err = s.store.Get(ctx, userID, filename, declared)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (s *tryOnService) History(ctx context.Context, userID string, page, perPage int) ([]models.DerivedAsset, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	repo := s.catalog.Derived(s.catalog.DB)
	total, err := repo.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	recs, err := repo.List(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	if recs == nil {
		recs = []models.DerivedAsset{}
	}
	return recs, total, nil
}
