package offers

import (
	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
)

// CreateInput links a shipment deal to a trip deal on behalf of the caller.
type CreateInput struct {
	ShipmentDealID uuid.UUID `json:"shipment_deal_id" validate:"required"`
	TripDealID     uuid.UUID `json:"trip_deal_id" validate:"required"`

	ActorUserID        uuid.UUID `json:"-"`
	ActorApplicationID uuid.UUID `json:"-"`
	ActorRole          string    `json:"-"`
}

// UpdateInput merges the non-nil fields onto an existing offer.
type UpdateInput struct {
	Status *enums.OfferStatus `json:"status,omitempty"`
}

// OfferDetail is the read model: the offer plus both deal views.
type OfferDetail struct {
	Offer        models.Offer `json:"offer"`
	ShipmentDeal *models.Deal `json:"shipment_deal,omitempty"`
	TripDeal     *models.Deal `json:"trip_deal,omitempty"`
}

// ListParams pages through offers, optionally narrowed to one status.
type ListParams struct {
	Status *enums.OfferStatus
	Limit  int
	Cursor string
}
