package service

import (
	"context"
	"fmt"
	"time"

	apperrors "pixvault/internal/errors"
	"pixvault/internal/repository"
)

const dateLayout = "2006-01-02"

// Dashboard is the admin dashboard aggregate.
type Dashboard struct {
	Users   DashboardUsers   `json:"users"`
	Uploads DashboardUploads `json:"uploads"`
	Storage DashboardStorage `json:"storage"`
}

// DashboardUsers summarizes user counts.
type DashboardUsers struct {
	Total  int64 `json:"total"`
	New30d int64 `json:"new_30d"`
	Active int64 `json:"active"`
}

// DashboardUploads summarizes upload counts.
type DashboardUploads struct {
	Total     int64 `json:"total"`
	New30d    int64 `json:"new_30d"`
	AvgSizeMB int64 `json:"avg_size_mb"`
}

// DashboardStorage summarizes storage totals.
type DashboardStorage struct {
	TotalBytes int64 `json:"total_bytes"`
	TotalMB    int64 `json:"total_mb"`
	TotalGB    int64 `json:"total_gb"`
}

// Period is the resolved date range of a report.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ReportService exposes read-only aggregate queries for admins.
type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	UploadsByDate(ctx context.Context, startDate, endDate string) ([]repository.DateBucket, *Period, error)
}

type reportService struct {
	userRepo   repository.UserRepository
	uploadRepo repository.UploadRepository
}

// NewReportService creates a new report service.
func NewReportService(userRepo repository.UserRepository, uploadRepo repository.UploadRepository) ReportService {
	return &reportService{
		userRepo:   userRepo,
		uploadRepo: uploadRepo,
	}
}

// Dashboard aggregates user and upload statistics.
func (s *reportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	userStats, err := s.userRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	uploadStats, err := s.uploadRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload stats: %w", err)
	}

	return &Dashboard{
		Users: DashboardUsers{
			Total:  userStats.TotalUsers,
			New30d: userStats.NewUsers30d,
			Active: userStats.ActiveUsers,
		},
		Uploads: DashboardUploads{
			Total:     uploadStats.TotalUploads,
			New30d:    uploadStats.Uploads30d,
			AvgSizeMB: roundToMB(uploadStats.AvgFileSize),
		},
		Storage: DashboardStorage{
			TotalBytes: uploadStats.TotalStorageBytes,
			TotalMB:    roundToMB(uploadStats.TotalStorageBytes),
			TotalGB:    int64(float64(uploadStats.TotalStorageBytes) / (1024 * 1024 * 1024)),
		},
	}, nil
}

// UploadsByDate buckets uploads by calendar day over the given inclusive
// range. Empty bounds default to the last 30 days.
func (s *reportService) UploadsByDate(ctx context.Context, startDate, endDate string) ([]repository.DateBucket, *Period, error) {
	now := time.Now()
	if startDate == "" {
		startDate = now.AddDate(0, 0, -30).Format(dateLayout)
	}
	if endDate == "" {
		endDate = now.Format(dateLayout)
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad start_date %q", apperrors.ErrInvalidDateRange, startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad end_date %q", apperrors.ErrInvalidDateRange, endDate)
	}
	if start.After(end) {
		return nil, nil, fmt.Errorf("%w: start_date %s is after end_date %s", apperrors.ErrInvalidDateRange, startDate, endDate)
	}

	rows, err := s.uploadRepo.CountByDateRange(ctx, start, end)
	if err != nil {
		return nil, nil, err
	}
	return rows, &Period{StartDate: startDate, EndDate: endDate}, nil
}
