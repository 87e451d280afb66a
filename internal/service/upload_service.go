package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pixvault/internal/auth"
	"pixvault/internal/cache"
	apperrors "pixvault/internal/errors"
	"pixvault/internal/model"
	"pixvault/internal/qr"
	"pixvault/internal/repository"
	"pixvault/internal/storage"
)

const (
	pngMimeType = "image/png"

	// storageTimeout bounds each individual object store call.
	storageTimeout = 30 * time.Second

	defaultPageLimit  = 20
	defaultExpirySecs = 3600

	uploadStatsCacheKey = "uploads:stats"
	uploadStatsCacheTTL = time.Minute
)

// FilePayload is one uploaded file as received from the multipart request.
type FilePayload struct {
	OriginalFilename string
	MimeType         string
	Size             int64
	Content          []byte
}

// RequestMeta captures caller details recorded alongside an upload.
type RequestMeta struct {
	UserAgent string
	IPAddress string
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// UploadStatsView is the stats payload with derived megabyte fields.
type UploadStatsView struct {
	repository.UploadStats
	TotalStorageMB int64 `json:"total_storage_mb"`
	AvgFileSizeMB  int64 `json:"avg_file_size_mb"`
}

// UploadService orchestrates the upload pipeline and upload lifecycle.
type UploadService interface {
	Upload(ctx context.Context, caller auth.Identity, file FilePayload, meta RequestMeta) (*model.Upload, error)
	GetUpload(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Upload, error)
	ListByOwner(ctx context.Context, caller auth.Identity, page, limit int) ([]model.Upload, *Pagination, error)
	SignedDownloadURL(ctx context.Context, caller auth.Identity, id uuid.UUID, expiresIn int) (string, int, error)
	Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error
	Stats(ctx context.Context) (*UploadStatsView, error)
}

type uploadService struct {
	repo     repository.UploadRepository
	store    storage.ObjectStore
	cache    *cache.Client
	maxBytes int64
}

// NewUploadService creates a new upload service.
func NewUploadService(repo repository.UploadRepository, store storage.ObjectStore, cache *cache.Client, maxBytes int64) UploadService {
	return &uploadService{
		repo:     repo,
		store:    store,
		cache:    cache,
		maxBytes: maxBytes,
	}
}

// Upload runs the pipeline: validate, store the original, encode and store
// the QR code, then persist the record. Validation happens before any side
// effect. The steps are not transactional: a failure after the first store
// write leaves an orphaned object behind.
func (s *uploadService) Upload(ctx context.Context, caller auth.Identity, file FilePayload, meta RequestMeta) (*model.Upload, error) {
	if len(file.Content) == 0 || file.OriginalFilename == "" {
		return nil, apperrors.ErrNoFile
	}
	if file.MimeType != pngMimeType {
		return nil, apperrors.ErrInvalidFileType
	}
	if file.Size > s.maxBytes {
		return nil, apperrors.ErrFileTooLarge
	}

	uploadID := uuid.New()
	storageName := generateStorageName(file.OriginalFilename)
	key := fmt.Sprintf("uploads/%s/%s", caller.ID, storageName)

	putCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	fileURL, err := s.store.Put(putCtx, key, file.Content, file.MimeType, map[string]string{
		"user-id":       caller.ID.String(),
		"original-name": file.OriginalFilename,
	})
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	qrPNG, err := qr.EncodePNG(fileURL)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	qrKey := fmt.Sprintf("qr-codes/%s-%s.png", uploadID, uuid.New())
	qrCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	qrURL, err := s.store.Put(qrCtx, qrKey, qrPNG, pngMimeType, nil)
	if err != nil {
		return nil, fmt.Errorf("store qr: %w", err)
	}

	record := &model.Upload{
		ID:               uploadID,
		UserID:           caller.ID,
		Filename:         storageName,
		OriginalFilename: file.OriginalFilename,
		FileSize:         file.Size,
		MimeType:         file.MimeType,
		FileURL:          fileURL,
		QRCodeURL:        qrURL,
		StorageBucket:    s.store.Bucket(),
		StorageKey:       key,
		QRStorageKey:     qrKey,
		Status:           model.UploadStatusCompleted,
		Metadata: datatypes.JSONMap{
			"upload_id":  uploadID.String(),
			"user_agent": meta.UserAgent,
			"ip_address": meta.IPAddress,
		},
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	_ = s.cache.Delete(ctx, uploadStatsCacheKey)
	return record, nil
}

// GetUpload returns an upload if the caller owns it or is an admin.
func (s *uploadService) GetUpload(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Upload, error) {
	upload, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUploadNotFound
		}
		return nil, err
	}
	if !caller.CanAccess(upload.UserID) {
		return nil, apperrors.ErrForbidden
	}
	return upload, nil
}

// ListByOwner returns one page of the caller's own uploads, newest first.
func (s *uploadService) ListByOwner(ctx context.Context, caller auth.Identity, page, limit int) ([]model.Upload, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	offset := (page - 1) * limit

	uploads, err := s.repo.FindByUserID(ctx, caller.ID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.repo.CountByUserID(ctx, caller.ID)
	if err != nil {
		return nil, nil, err
	}
	return uploads, &Pagination{Page: page, Limit: limit, Total: total}, nil
}

// SignedDownloadURL returns a time-bounded download URL for the original
// object, subject to the same ownership check as GetUpload.
func (s *uploadService) SignedDownloadURL(ctx context.Context, caller auth.Identity, id uuid.UUID, expiresIn int) (string, int, error) {
	upload, err := s.GetUpload(ctx, caller, id)
	if err != nil {
		return "", 0, err
	}
	if expiresIn <= 0 {
		expiresIn = defaultExpirySecs
	}

	signCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	url, err := s.store.PresignGet(signCtx, upload.StorageKey, upload.OriginalFilename, time.Duration(expiresIn)*time.Second)
	if err != nil {
		return "", 0, fmt.Errorf("presign download: %w", err)
	}
	return url, expiresIn, nil
}

// Delete removes the stored objects and then the record. The store delete
// runs first: if it fails, the row is kept so no dangling reference is
// created.
func (s *uploadService) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	upload, err := s.GetUpload(ctx, caller, id)
	if err != nil {
		return err
	}

	keys := []string{upload.StorageKey}
	if upload.QRStorageKey != "" {
		keys = append(keys, upload.QRStorageKey)
	}

	delCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if err := s.store.Delete(delCtx, keys...); err != nil {
		return fmt.Errorf("delete objects: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	_ = s.cache.Delete(ctx, uploadStatsCacheKey)
	return nil
}

// Stats returns aggregate upload statistics with short-lived caching.
func (s *uploadService) Stats(ctx context.Context) (*UploadStatsView, error) {
	if data, _ := s.cache.Get(ctx, uploadStatsCacheKey); data != nil {
		var cached UploadStatsView
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	view := &UploadStatsView{
		UploadStats:    *stats,
		TotalStorageMB: roundToMB(stats.TotalStorageBytes),
		AvgFileSizeMB:  roundToMB(stats.AvgFileSize),
	}

	if payload, err := json.Marshal(view); err == nil {
		_ = s.cache.Set(ctx, uploadStatsCacheKey, payload, uploadStatsCacheTTL)
	}
	return view, nil
}

func roundToMB(bytes int64) int64 {
	return int64(math.Round(float64(bytes) / (1024 * 1024)))
}

// generateStorageName derives a collision-resistant storage filename:
// {basename}-{unixMillis}-{token}{ext}. Uniqueness is probabilistic, which
// is treated as sufficient here.
func generateStorageName(originalName string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	token := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("%s-%d-%s%s", base, time.Now().UnixMilli(), token, ext)
}
