package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is a parcel a shipper wants carried. DealID is nullable: a
// shipment detached from a deal goes back to the open pool.
type Shipment struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Weight      float64          `gorm:"column:weight;not null"`
	Cost        *decimal.Decimal `gorm:"column:cost;type:numeric(12,2)"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	URL         *string          `gorm:"column:url"`
	ImgURL      *string          `gorm:"column:img_url"`
	Description *string          `gorm:"column:description"`
	Details     *string          `gorm:"column:details"`
	TypeID      *uuid.UUID       `gorm:"column:type_id;type:uuid"`
	Type        *ShipmentType    `gorm:"foreignKey:TypeID"`
	FromID      *uuid.UUID       `gorm:"column:from_id;type:uuid"`
	From        *Location        `gorm:"foreignKey:FromID"`
	ToID        *uuid.UUID       `gorm:"column:to_id;type:uuid"`
	To          *Location        `gorm:"foreignKey:ToID"`
	DealID      *uuid.UUID       `gorm:"column:deal_id;type:uuid"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
