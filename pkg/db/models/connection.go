package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection holds a user's device and session tokens. Partial updates must
// only touch fields the caller sent; the FCM token churns on every device
// re-install while the OAuth tokens live their own lifecycle.
type Connection struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserApplicationID uuid.UUID  `gorm:"column:user_application_id;type:uuid;not null;uniqueIndex"`
	FCMToken          *string    `gorm:"column:fcm_token"`
	OAuthToken        *string    `gorm:"column:oauth_token"`
	LocalToken        *string    `gorm:"column:local_token"`
	LocalRefreshToken *string    `gorm:"column:local_refresh_token"`
	TokenExpiresAt    *time.Time `gorm:"column:token_expires_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
