package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Constants carries the operator-tunable pricing and validation globals.
// A single row is expected; the newest row wins.
type Constants struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WeightFactor decimal.Decimal `gorm:"column:weight_factor;type:numeric(8,4);not null;default:1"`
	MaxWeight    float64         `gorm:"column:max_weight;not null;default:30"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy singular name.
func (Constants) TableName() string {
	return "constants"
}
