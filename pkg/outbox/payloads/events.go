package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/enums"
)

// OfferCreatedEvent signals a new offer linking a shipment deal to a trip deal.
type OfferCreatedEvent struct {
	OfferID        uuid.UUID  `json:"offer_id"`
	ShipmentDealID uuid.UUID  `json:"shipment_deal_id"`
	TripDealID     uuid.UUID  `json:"trip_deal_id"`
	SenderID       *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID     *uuid.UUID `json:"receiver_id,omitempty"`
}

// OfferClosedEvent is emitted when a rival offer is closed during finalization.
type OfferClosedEvent struct {
	OfferID        uuid.UUID         `json:"offer_id"`
	ShipmentDealID uuid.UUID         `json:"shipment_deal_id"`
	Status         enums.OfferStatus `json:"status"`
}

// DealCreatedEvent is emitted when intake produces a fresh deal.
type DealCreatedEvent struct {
	DealID     uuid.UUID      `json:"deal_id"`
	StatusCode string         `json:"status_code"`
	OwnerID    *uuid.UUID     `json:"owner_id,omitempty"`
	DeliverID  *uuid.UUID     `json:"deliver_id,omitempty"`
	TripID     *uuid.UUID     `json:"trip_id,omitempty"`
	Weights    WeightSnapshot `json:"weights"`
}

// DealFinalizedEvent carries the outcome of a successful finalization.
type DealFinalizedEvent struct {
	DealID         uuid.UUID      `json:"deal_id"`
	ShipmentDealID uuid.UUID      `json:"shipment_deal_id"`
	TripDealID     uuid.UUID      `json:"trip_deal_id"`
	OfferID        uuid.UUID      `json:"offer_id"`
	OwnerID        *uuid.UUID     `json:"owner_id,omitempty"`
	DeliverID      *uuid.UUID     `json:"deliver_id,omitempty"`
	TripID         *uuid.UUID     `json:"trip_id,omitempty"`
	ShipmentIDs    []uuid.UUID    `json:"shipment_ids"`
	Weights        WeightSnapshot `json:"weights"`
	FinalizedAt    time.Time      `json:"finalized_at"`
}

// DealDeletedEvent is emitted after a deal and its back-references are torn down.
type DealDeletedEvent struct {
	DealID            uuid.UUID `json:"deal_id"`
	DetachedShipments int       `json:"detached_shipments"`
	DeletedAt         time.Time `json:"deleted_at"`
}

// ShipmentDetachedEvent signals a single shipment returned to the open pool.
type ShipmentDetachedEvent struct {
	ShipmentID uuid.UUID `json:"shipment_id"`
	DealID     uuid.UUID `json:"deal_id"`
}

// WeightSnapshot captures a deal's weight pair at event time.
type WeightSnapshot struct {
	FullWeight      float64 `json:"full_weight"`
	AvailableWeight float64 `json:"available_weight"`
}
