package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Repository exposes persistence for offers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindByPair(ctx context.Context, shipmentDealID, tripDealID uuid.UUID) (*models.Offer, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Offer, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status *enums.OfferStatus, params listParams) ([]models.Offer, *pagination.Cursor, error)
	ListForApplication(ctx context.Context, applicationID uuid.UUID, params listParams) ([]models.Offer, *pagination.Cursor, error)
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}
