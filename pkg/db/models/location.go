package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a cached airport record sourced from the flight-data provider.
// Airport names are unique; refresh runs upsert only on unseen names.
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Country   string    `gorm:"column:country;not null"`
	City      string    `gorm:"column:city;not null"`
	Airport   string    `gorm:"column:airport;not null;uniqueIndex"`
	Details   *string   `gorm:"column:details"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
