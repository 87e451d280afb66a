package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pixvault/internal/auth"
	"pixvault/internal/cache"
	apperrors "pixvault/internal/errors"
	"pixvault/internal/model"
	"pixvault/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileUpdate is the closed set of fields a user may change on their own
// profile. Anything else in the request body is ignored by the DTO binding.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// UserService exposes user profile and admin operations.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, update ProfileUpdate) (*model.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]model.User, *Pagination, error)
	DeleteUser(ctx context.Context, caller auth.Identity, id uuid.UUID) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// GetUser retrieves a user by ID with caching.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// UpdateProfile applies a typed partial update to the caller's own profile.
func (s *userService) UpdateProfile(ctx context.Context, caller auth.Identity, update ProfileUpdate) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, caller.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

// ListUsers returns one page of users, newest first.
func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]model.User, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	offset := (page - 1) * limit

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, nil, err
	}
	return users, &Pagination{Page: page, Limit: limit, Total: total}, nil
}

// DeleteUser removes a user and, via the cascade constraint, their uploads
// and sessions. Admin only.
func (s *userService) DeleteUser(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if !caller.IsAdmin() {
		return apperrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrUserNotFound
		}
		return err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
