package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/jobs"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// Capture sources recorded in context_info.
const (
	SourceExtension = "extension"
	SourceClipboard = "clipboard"
	SourceUpload    = "file_upload"
)

// CaptureRequest is one image arriving at the local node. Exactly one of
// Data and ImageURL carries the bytes: Data holds raw bytes (uploads),
// ImageURL a data URL or a remote http(s) URL.
type CaptureRequest struct {
	UserID      string
	Data        []byte
	ImageURL    string
	OriginalURL string
	PageURL     string
	PageTitle   string
	Category    string
	Source      string
	ContextInfo map[string]any
}

// CaptureResult describes the stored image and the job tracking it.
type CaptureResult struct {
	JobID    string            `json:"task_id"`
	ImageID  string            `json:"image_id"`
	Filename string            `json:"filename"`
	FileSize int64             `json:"file_size"`
	Category category.Category `json:"category"`
	Width    int               `json:"image_width"`
	Height   int               `json:"image_height"`
}

// CaptureService turns incoming images into stored files, catalog rows and
// a tracking job.
type CaptureService interface {
	Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error)
	Job(ctx context.Context, id string) (*models.Job, error)
}

// CaptureOptions tune the capture pipeline.
type CaptureOptions struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	JobDelay     time.Duration
}

type captureService struct {
	catalog *catalog.Catalog
	store   assets.Store
	tracker *jobs.Tracker
	client  *http.Client
	opts    CaptureOptions
	logger  logging.Logger
}

func NewCaptureService(c *catalog.Catalog, store assets.Store, tracker *jobs.Tracker, opts CaptureOptions, logger logging.Logger) CaptureService {
	return &captureService{
		catalog: c,
		store:   store,
		tracker: tracker,
		client:  &http.Client{Timeout: opts.FetchTimeout},
		opts:    opts,
		logger:  logger.With("service", "capture"),
	}
}

func (s *captureService) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	data, err := s.payload(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.opts.MaxBytes > 0 && int64(len(data)) > s.opts.MaxBytes {
		return nil, common.Validationf("image exceeds %d bytes", s.opts.MaxBytes)
	}

	c := category.Validate(req.Category)
	filename, err := s.store.Put(ctx, req.UserID, c, data)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	width, height := assets.Dimensions(data)

	source := req.Source
	if source == "" {
		source = SourceExtension
	}
	info := make(map[string]any, len(req.ContextInfo)+2)
	for k, v := range req.ContextInfo {
		info[k] = v
	}
	info["category"] = string(c)
	info["source"] = source

	img := &models.Image{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Filename:    filename,
		Category:    c,
		OriginalURL: req.OriginalURL,
		PageURL:     req.PageURL,
		PageTitle:   req.PageTitle,
		ContextInfo: info,
		FileSize:    int64(len(data)),
		Width:       width,
		Height:      height,
		SavedAt:     timex.Now(),
		Status:      models.ImageStatusActive,
	}
	if err := s.catalog.Images(s.catalog.DB).Insert(ctx, img); err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), req.UserID, filename, c); derr != nil {
			s.logger.Error(ctx, "orphaned file after failed insert", "filename", filename, "error", derr)
		}
		return nil, fmt.Errorf("catalog image: %w", err)
	}

	job, err := s.tracker.Create(ctx, req.UserID, img.ID, models.JobKindCapture)
	if err != nil {
		return nil, err
	}
	if err := s.tracker.Finish(job, jobs.Delay(s.opts.JobDelay)); err != nil {
		// the image is stored; only post-processing is lost
		s.logger.Warn(ctx, "capture job not scheduled", "job_id", job.ID, "error", err)
		if _, aerr := s.tracker.Advance(ctx, job.ID, models.JobStatusFailed, err.Error()); aerr != nil {
			s.logger.Error(ctx, "advance job", "job_id", job.ID, "error", aerr)
		}
	}

	s.logger.Info(ctx, "image captured",
		"user_id", req.UserID, "image_id", img.ID, "filename", filename,
		"category", c, "size", img.FileSize, "source", source)

	return &CaptureResult{
		JobID:    job.ID,
		ImageID:  img.ID,
		Filename: filename,
		FileSize: img.FileSize,
		Category: c,
		Width:    width,
		Height:   height,
	}, nil
}

func (s *captureService) Job(ctx context.Context, id string) (*models.Job, error) {
	return s.tracker.Get(ctx, id)
}

func (s *captureService) payload(ctx context.Context, req CaptureRequest) ([]byte, error) {
	switch {
	case len(req.Data) > 0:
		return req.Data, nil
	case req.ImageURL == "":
		return nil, common.Validationf("no image data provided")
	case assets.IsDataURL(req.ImageURL):
		_, data, err := assets.DecodeDataURL(req.ImageURL)
		return data, err
	case strings.HasPrefix(req.ImageURL, "http://"), strings.HasPrefix(req.ImageURL, "https://"):
		return s.fetch(ctx, req.ImageURL)
	}
	return nil, common.Validationf("unsupported image source")
}

// fetch downloads a remote image, reading at most MaxBytes+1 bytes so an
// oversized body is detected without buffering all of it.
func (s *captureService) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.Validationf("invalid image url: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch image: %v", common.ErrorValidation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.Validationf("fetch image: status %d", resp.StatusCode)
	}

	var r io.Reader = resp.Body
	if s.opts.MaxBytes > 0 {
		r = io.LimitReader(resp.Body, s.opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, common.Validationf("empty image data")
	}
	return data, nil
}
