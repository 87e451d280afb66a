package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pixvault/internal/model"
)

// SessionRepository defines session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	DeactivateByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session record.
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// DeactivateByTokenHash marks a session inactive.
func (r *sessionRepository) DeactivateByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("token_hash = ?", tokenHash).
		Update("is_active", false).Error
}

// DeleteExpired removes sessions that expired before the given time.
func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
