package deals

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/enums"
)

// SearchFilters narrows deal searches. From and To match against the
// country, city or airport of the relevant route endpoints; trip deals
// resolve the route through the trip, shipment deals through their shipments.
type SearchFilters struct {
	From string
	To   string
	// MinAvailableWeight filters trip deals that can still take that much.
	MinAvailableWeight float64
	// MaxFullWeight filters shipment deals that fit a traveler's capacity.
	MaxFullWeight float64
	DateFrom      *time.Time
	DateTo        *time.Time
}

// FinalizeInput identifies the offer to accept plus the actor performing it.
type FinalizeInput struct {
	ShipmentDealID     uuid.UUID
	TripDealID         uuid.UUID
	ActorUserID        uuid.UUID
	ActorApplicationID *uuid.UUID
	ActorRole          enums.UserRole
}

// FinalizeResult reports the merged deal and the side effects of acceptance.
type FinalizeResult struct {
	MergedDealID      uuid.UUID
	OfferID           uuid.UUID
	MovedShipments    int
	ClosedRivalOffers int64
	RebalancedDeals   int
}

// ActorInput carries the caller identity for mutations that emit events.
type ActorInput struct {
	UserID        uuid.UUID
	ApplicationID *uuid.UUID
	Role          enums.UserRole
}
