package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	ApplicationID *uuid.UUID
	Login         string
	Role          enums.UserRole
	JTI           string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID        uuid.UUID      `json:"user_id"`
	ApplicationID *uuid.UUID     `json:"application_id,omitempty"`
	Login         string         `json:"login"`
	Role          enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
