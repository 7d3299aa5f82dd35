package deals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Repository exposes persistence for deals plus the offer and shipment rows
// finalization has to touch in the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, deal *models.Deal) (*models.Deal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	FindSiblingsForUpdate(ctx context.Context, deliverID, tripID uuid.UUID) ([]models.Deal, error)
	UpdateWeights(ctx context.Context, id uuid.UUID, fullWeight, availableWeight float64, version int64) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error

	ShipmentsByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Shipment, error)
	DetachShipments(ctx context.Context, dealID uuid.UUID) (int64, error)
	DetachShipment(ctx context.Context, shipmentID, dealID uuid.UUID) (bool, error)
	ReassignShipments(ctx context.Context, shipmentIDs []uuid.UUID, dealID uuid.UUID) error

	FindOfferByPair(ctx context.Context, shipmentDealID, tripDealID uuid.UUID) (*models.Offer, error)
	AcceptOffer(ctx context.Context, offerID, mergedDealID uuid.UUID) error
	CloseRivalOffers(ctx context.Context, shipmentDealID, acceptedOfferID uuid.UUID) (int64, error)

	FindStatusByCode(ctx context.Context, code enums.DealStatusCode) (*models.DealStatus, error)

	List(ctx context.Context, params listParams) ([]models.Deal, *pagination.Cursor, error)
	RecentShipmentDeals(ctx context.Context, since time.Time, params listParams) ([]models.Deal, *pagination.Cursor, error)
	RecentTripDeals(ctx context.Context, since time.Time, params listParams) ([]models.Deal, *pagination.Cursor, error)
	SearchTripDeals(ctx context.Context, filters SearchFilters, params listParams) ([]models.Deal, *pagination.Cursor, error)
	SearchShipmentDeals(ctx context.Context, filters SearchFilters, params listParams) ([]models.Deal, *pagination.Cursor, error)
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}
