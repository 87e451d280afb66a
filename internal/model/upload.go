package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UploadStatus tracks an upload through the pipeline. Transitions are
// monotonic: pending moves to completed or failed and never back.
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusCompleted UploadStatus = "completed"
	UploadStatusFailed    UploadStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// Upload represents a stored file and its derived QR code.
type Upload struct {
	ID               uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	Filename         string            `json:"filename" gorm:"size:255;not null;index"`
	OriginalFilename string            `json:"original_filename" gorm:"size:255;not null"`
	FileSize         int64             `json:"file_size" gorm:"not null"`
	MimeType         string            `json:"mime_type" gorm:"size:100;not null"`
	FileURL          string            `json:"file_url" gorm:"type:text;not null"`
	QRCodeURL        string            `json:"qr_code_url,omitempty" gorm:"type:text"`
	StorageBucket    string            `json:"s3_bucket" gorm:"size:255"`
	StorageKey       string            `json:"s3_key" gorm:"size:500"`
	QRStorageKey     string            `json:"qr_s3_key,omitempty" gorm:"size:500"`
	Status           UploadStatus      `json:"upload_status" gorm:"size:50;default:'completed'"`
	Metadata         datatypes.JSONMap `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt        time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
