package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pixvault/internal/model"
)

// UploadStats holds aggregate upload counts for reporting.
type UploadStats struct {
	TotalUploads      int64 `json:"total_uploads"`
	Uploads30d        int64 `json:"uploads_30d"`
	TotalStorageBytes int64 `json:"total_storage_bytes"`
	AvgFileSize       int64 `json:"avg_file_size"`
}

// DateBucket is one calendar day's worth of uploads.
type DateBucket struct {
	UploadDate  string `json:"upload_date"`
	UploadCount int64  `json:"upload_count"`
	TotalSize   int64  `json:"total_size"`
}

// UploadRepository defines upload persistence operations.
type UploadRepository interface {
	Create(ctx context.Context, upload *model.Upload) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Upload, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Upload, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*UploadStats, error)
	CountByDateRange(ctx context.Context, start, end time.Time) ([]DateBucket, error)
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository creates a new upload repository.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

// Create creates a new upload record.
func (r *uploadRepository) Create(ctx context.Context, upload *model.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

// FindByID finds an upload by ID.
func (r *uploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	var upload model.Upload
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

// FindByUserID returns one page of a user's uploads, newest first.
func (r *uploadRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Upload, error) {
	var uploads []model.Upload
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

// CountByUserID returns the total number of uploads owned by a user.
func (r *uploadRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Upload{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes an upload record.
func (r *uploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Upload{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Stats returns aggregate upload counts and storage totals.
func (r *uploadRepository) Stats(ctx context.Context) (*UploadStats, error) {
	var stats UploadStats
	err := r.db.WithContext(ctx).Model(&model.Upload{}).
		Select(`COUNT(*) AS total_uploads,
			COUNT(CASE WHEN created_at >= CURRENT_DATE - INTERVAL '30 days' THEN 1 END) AS uploads_30d,
			COALESCE(SUM(file_size), 0) AS total_storage_bytes,
			COALESCE(AVG(file_size), 0)::bigint AS avg_file_size`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountByDateRange groups uploads by calendar day over [start, end], newest
// day first. Both bounds are inclusive.
func (r *uploadRepository) CountByDateRange(ctx context.Context, start, end time.Time) ([]DateBucket, error) {
	var rows []DateBucket
	err := r.db.WithContext(ctx).Model(&model.Upload{}).
		Select(`DATE(created_at)::text AS upload_date,
			COUNT(*) AS upload_count,
			COALESCE(SUM(file_size), 0) AS total_size`).
		Where("created_at >= ? AND created_at < ?", start, end.AddDate(0, 0, 1)).
		Group("DATE(created_at)").
		Order("upload_date DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
