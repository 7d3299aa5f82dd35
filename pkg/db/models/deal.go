package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal is the matching unit of the marketplace. A shipment deal carries
// shipments and an owner; a trip deal carries a trip and a deliverer; a
// finalized deal carries all of them. Weight rebalancing across deals that
// share (deliver, trip) runs under row locks, with Version as a belt-and-
// suspenders optimistic check.
type Deal struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TotalPrice      *decimal.Decimal `gorm:"column:total_price;type:numeric(12,2)"`
	IsCashed        bool             `gorm:"column:is_cashed;not null;default:false"`
	FromAccount     *string          `gorm:"column:from_account"`
	ToAccount       *string          `gorm:"column:to_account"`
	FullWeight      float64          `gorm:"column:full_weight;not null;default:0"`
	AvailableWeight float64          `gorm:"column:available_weight;not null;default:0"`
	ArrivalDate     *time.Time       `gorm:"column:arrival_date"`
	ExpectedDate    *time.Time       `gorm:"column:expected_date"`
	Details         *string          `gorm:"column:details"`
	StatusID        uuid.UUID        `gorm:"column:status_id;type:uuid;not null"`
	Status          *DealStatus      `gorm:"foreignKey:StatusID"`
	OwnerID         *uuid.UUID       `gorm:"column:owner_id;type:uuid"`
	Owner           *UserApplication `gorm:"foreignKey:OwnerID"`
	DeliverID       *uuid.UUID       `gorm:"column:deliver_id;type:uuid"`
	Deliver         *UserApplication `gorm:"foreignKey:DeliverID"`
	TripID          *uuid.UUID       `gorm:"column:trip_id;type:uuid"`
	Trip            *Trip            `gorm:"foreignKey:TripID"`
	Shipments       []Shipment       `gorm:"foreignKey:DealID"`
	Transaction     *Transaction     `gorm:"foreignKey:DealID"`
	Version         int64            `gorm:"column:version;not null;default:0"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsShipmentDeal reports whether the deal sits on the shipper side of a match.
func (d *Deal) IsShipmentDeal() bool {
	return d.OwnerID != nil && d.TripID == nil
}

// IsTripDeal reports whether the deal sits on the traveler side of a match.
func (d *Deal) IsTripDeal() bool {
	return d.DeliverID != nil && d.TripID != nil
}
