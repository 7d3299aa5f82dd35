package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Login       string     `json:"login"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	LangKey     *string    `json:"lang_key,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Activated   bool       `json:"activated"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProfileDTO joins the user with their marketplace application.
type ProfileDTO struct {
	User          *UserDTO      `json:"user"`
	ApplicationID uuid.UUID     `json:"application_id"`
	PhoneNumber   *string       `json:"phone_number,omitempty"`
	PassportNumber *string      `json:"passport_number,omitempty"`
	ImageURL      *string       `json:"image_url,omitempty"`
	Rating        float64       `json:"rating"`
	StarCounts    types.Ratings `json:"star_counts"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Login        string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	LangKey      *string
	ImageURL     *string
}

// ConnectionPatch carries a partial connection update. Nil fields are left
// untouched.
type ConnectionPatch struct {
	FCMToken          *string    `json:"fcm_token,omitempty"`
	OAuthToken        *string    `json:"oauth_token,omitempty"`
	LocalToken        *string    `json:"local_token,omitempty"`
	LocalRefreshToken *string    `json:"local_refresh_token,omitempty"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty"`
}

// FromModel maps a user row to its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		LangKey:     u.LangKey,
		ImageURL:    u.ImageURL,
		Activated:   u.Activated,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ProfileFromModels joins the user and application rows.
func ProfileFromModels(user *models.User, app *models.UserApplication) *ProfileDTO {
	if app == nil {
		return &ProfileDTO{User: FromModel(user)}
	}
	return &ProfileDTO{
		User:           FromModel(user),
		ApplicationID:  app.ID,
		PhoneNumber:    app.PhoneNumber,
		PassportNumber: app.PassportNumber,
		ImageURL:       app.ImageURL,
		Rating:         app.Rating,
		StarCounts:     app.StarCounts,
	}
}

// ToModel builds the user row to persist.
func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Login:        c.Login,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		LangKey:      c.LangKey,
		ImageURL:     c.ImageURL,
		Activated:    true,
	}
}
