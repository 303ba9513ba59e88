package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is one page of a user's images.
type Page struct {
	Images  []models.Image `json:"images"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Pages   int64          `json:"pages"`
}

// LibraryService queries and edits a user's images and favorites.
type LibraryService interface {
	List(ctx context.Context, userID string, c category.Category, page, perPage int) (*Page, error)
	Get(ctx context.Context, userID, imageID string) (*models.Image, error)
	// File returns the bytes and MIME type of filename, searching every
	// category starting with declared.
	File(ctx context.Context, userID, filename string, declared category.Category) ([]byte, string, error)
	Files(ctx context.Context, userID string, c category.Category) ([]assets.FileInfo, error)
	Delete(ctx context.Context, userID, imageID string) error
	BatchDelete(ctx context.Context, userID string, ids []string) catalog.BatchDeleteResult
	AddFavorite(ctx context.Context, userID, imageID string) (bool, error)
	RemoveFavorite(ctx context.Context, userID, imageID string) (bool, error)
	Favorites(ctx context.Context, userID string) ([]models.Favorite, error)
	TotalImages(ctx context.Context) (int64, error)
}

type libraryService struct {
	catalog *catalog.Catalog
	store   assets.Store
	logger  logging.Logger
}

func NewLibraryService(c *catalog.Catalog, store assets.Store, logger logging.Logger) LibraryService {
	return &libraryService{catalog: c, store: store, logger: logger.With("service", "library")}
}

func (s *libraryService) List(ctx context.Context, userID string, c category.Category, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if c != "" && !c.IsValid() {
		return nil, common.Validationf("invalid category %q", c)
	}

	repo := s.catalog.Images(s.catalog.DB)
	total, err := repo.Count(ctx, userID, c)
	if err != nil {
		return nil, err
	}
	imgs, err := repo.List(ctx, userID, c, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	if imgs == nil {
		imgs = []models.Image{}
	}
	return &Page{
		Images:  imgs,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   (total + int64(perPage) - 1) / int64(perPage),
	}, nil
}

func (s *libraryService) Get(ctx context.Context, userID, imageID string) (*models.Image, error) {
	return s.catalog.Images(s.catalog.DB).GetByID(ctx, userID, imageID)
}

func (s *libraryService) File(ctx context.Context, userID, filename string, declared category.Category) ([]byte, string, error) {
	data, found, err := s.store.Get(ctx, userID, filename, declared)
	if err != nil {
		return nil, "", err
	}
	if declared != "" && found != declared {
		s.logger.Debug(ctx, "file served from fallback category", "filename", filename, "declared", declared, "found", found)
	}
	return data, assets.MIMETypeFor(filename), nil
}

func (s *libraryService) Files(ctx context.Context, userID string, c category.Category) ([]assets.FileInfo, error) {
	return s.store.ListFileInfo(ctx, userID, c)
}

func (s *libraryService) Delete(ctx context.Context, userID, imageID string) error {
	img, err := s.catalog.DeleteImageCascade(ctx, userID, imageID)
	if err != nil {
		return err
	}
	s.removeFile(ctx, img)
	return nil
}

func (s *libraryService) BatchDelete(ctx context.Context, userID string, ids []string) catalog.BatchDeleteResult {
	res := s.catalog.BatchDelete(ctx, userID, ids)
	for i := range res.Deleted {
		s.removeFile(ctx, &res.Deleted[i])
	}
	if err := res.Err(); err != nil {
		s.logger.Warn(ctx, "batch delete incomplete", "user_id", userID, "error", err)
	}
	return res
}

// removeFile deletes the file of an already removed row. The row is gone
// either way, so a failure is only logged.
func (s *libraryService) removeFile(ctx context.Context, img *models.Image) {
	_, found, err := s.store.Get(ctx, img.UserID, img.Filename, img.Category)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "locate file for delete", "filename", img.Filename, "error", err)
		}
		return
	}
	if err := s.store.Delete(ctx, img.UserID, img.Filename, found); err != nil {
		s.logger.Error(ctx, "delete file", "filename", img.Filename, "error", err)
	}
}

func (s *libraryService) AddFavorite(ctx context.Context, userID, imageID string) (bool, error) {
	if _, err := s.Get(ctx, userID, imageID); err != nil {
		return false, err
	}
	fav := &models.Favorite{
		ID:           uuid.NewString(),
		UserID:       userID,
		ImageID:      imageID,
		FavoriteType: models.FavoriteTypeImage,
		CreatedAt:    timex.Now(),
	}
	added, err := s.catalog.Favorites(s.catalog.DB).Add(ctx, fav)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return added, nil
}

func (s *libraryService) RemoveFavorite(ctx context.Context, userID, imageID string) (bool, error) {
	return s.catalog.Favorites(s.catalog.DB).Remove(ctx, userID, imageID, models.FavoriteTypeImage)
}

func (s *libraryService) Favorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	favs, err := s.catalog.Favorites(s.catalog.DB).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	return favs, nil
}

func (s *libraryService) TotalImages(ctx context.Context) (int64, error) {
	return s.catalog.Images(s.catalog.DB).CountAll(ctx)
}
