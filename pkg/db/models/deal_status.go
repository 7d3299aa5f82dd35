package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/enums"
)

// DealStatus is a seeded lookup row. Code is the stable handle; Sequence
// orders statuses for display.
type DealStatus struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      enums.DealStatusCode `gorm:"column:code;type:text;not null;uniqueIndex"`
	Name      string               `gorm:"column:name;not null"`
	Sequence  int                  `gorm:"column:sequence;not null;default:0"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
