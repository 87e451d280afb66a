package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"pixvault/internal/model"
)

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "ann@x.com", model.RoleAdmin)
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateAccessToken(uuid.New(), "ann@x.com", model.RoleUser)
	assert.NoError(t, err)

	_, err = NewJWTService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExtractTokenID(t *testing.T) {
	svc := NewJWTService("test-secret")

	tokenID, refreshToken, err := svc.GenerateRefreshToken(uuid.New(), "ann@x.com", model.RoleUser)
	assert.NoError(t, err)

	got, err := svc.ExtractTokenID(refreshToken)
	assert.NoError(t, err)
	assert.Equal(t, tokenID, got)

	// access tokens carry no jti
	accessToken, err := svc.GenerateAccessToken(uuid.New(), "ann@x.com", model.RoleUser)
	assert.NoError(t, err)
	_, err = svc.ExtractTokenID(accessToken)
	assert.Error(t, err)
}

func TestIdentity_CanAccess(t *testing.T) {
	ownerID := uuid.New()

	owner := Identity{ID: ownerID, Role: model.RoleUser}
	stranger := Identity{ID: uuid.New(), Role: model.RoleUser}
	admin := Identity{ID: uuid.New(), Role: model.RoleAdmin}

	assert.True(t, owner.CanAccess(ownerID))
	assert.False(t, stranger.CanAccess(ownerID))
	assert.True(t, admin.CanAccess(ownerID))
	assert.False(t, stranger.IsAdmin())
	assert.True(t, admin.IsAdmin())
}
