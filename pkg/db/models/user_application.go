package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/types"
)

// UserApplication is the marketplace profile a User acts through. Deals
// reference it as owner (shipper side) or deliver (traveler side).
type UserApplication struct {
	ID                uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User              *User         `gorm:"foreignKey:UserID"`
	PhoneNumber       *string       `gorm:"column:phone_number"`
	PassportNumber    *string       `gorm:"column:passport_number"`
	ImageURL          *string       `gorm:"column:image_url"`
	Rating            float64       `gorm:"column:rating;not null;default:0"`
	StarCounts        types.Ratings `gorm:"column:star_counts;type:jsonb"`
	IsGoogleAccount   bool          `gorm:"column:is_google_account;not null;default:false"`
	IsFacebookAccount bool          `gorm:"column:is_facebook_account;not null;default:false"`
	Connection        *Connection   `gorm:"foreignKey:UserApplicationID"`
	ShipmentDeals     []Deal        `gorm:"foreignKey:OwnerID"`
	TripDeals         []Deal        `gorm:"foreignKey:DeliverID"`
	CreatedAt         time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
