package auth

import (
	"github.com/closurehq/laser-backend/internal/users"
)

// RegisterRequest contains the payload required for onboarding a new user.
type RegisterRequest struct {
	Login     string  `json:"login" validate:"required,min=3"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	LangKey   *string `json:"lang_key,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	FCMToken  *string `json:"fcm_token,omitempty"`
}

// LoginRequest captures the credentials sent to the login endpoint. Username
// accepts either the login or the email.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair bundles the minted access token and its refresh counterpart.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse contains the tokens and profile produced by a successful login.
type LoginResponse struct {
	TokenPair
	Profile *users.ProfileDTO `json:"profile"`
}

// RefreshRequest carries the expired access token plus the refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}
