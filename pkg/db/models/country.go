package models

import (
	"time"

	"github.com/google/uuid"
)

// Country is static reference data for phone and address forms.
type Country struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Country   string    `gorm:"column:country;not null"`
	Capital   *string   `gorm:"column:capital"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	PhoneCode *string   `gorm:"column:phone_code"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the plural distinct from the locations country column.
func (Country) TableName() string {
	return "countries"
}
