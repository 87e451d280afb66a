package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pixvault/internal/model"
)

// Identity is the authenticated caller resolved from JWT claims.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  model.Role
}

// CanAccess reports whether the identity may act on a resource owned by
// ownerID. Admins may act on any resource.
func (id Identity) CanAccess(ownerID uuid.UUID) bool {
	return id.Role == model.RoleAdmin || id.ID == ownerID
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

// IdentityFromContext extracts the caller identity placed in the echo
// context by the JWT middleware.
func IdentityFromContext(c echo.Context) (Identity, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return Identity{}, errors.New("missing token in context")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Identity{}, errors.New("unexpected claims type")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, errors.New("invalid user id in claims")
	}
	if !claims.Role.Valid() {
		return Identity{}, errors.New("invalid role in claims")
	}
	return Identity{ID: userID, Email: claims.Email, Role: claims.Role}, nil
}
