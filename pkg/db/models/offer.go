package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/enums"
)

// Offer links a shipment deal to a trip deal. The pair is unique; acceptance
// repoints TripDealID at the merged deal and closes every rival offer on the
// same shipment deal.
type Offer struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentDealID uuid.UUID         `gorm:"column:shipment_deal_id;type:uuid;not null;uniqueIndex:idx_offers_pair,priority:1"`
	ShipmentDeal   *Deal             `gorm:"foreignKey:ShipmentDealID"`
	TripDealID     uuid.UUID         `gorm:"column:trip_deal_id;type:uuid;not null;uniqueIndex:idx_offers_pair,priority:2"`
	TripDeal       *Deal             `gorm:"foreignKey:TripDealID"`
	Status         enums.OfferStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SenderID       *uuid.UUID        `gorm:"column:sender_id;type:uuid"`
	Sender         *UserApplication  `gorm:"foreignKey:SenderID"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
