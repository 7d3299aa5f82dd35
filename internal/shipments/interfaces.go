package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Repository exposes shipment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, shipments []models.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Shipment, error)
	List(ctx context.Context, params listParams) ([]models.Shipment, *pagination.Cursor, error)
	SearchByRoute(ctx context.Context, from, to string, params listParams) ([]models.Shipment, *pagination.Cursor, error)
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}
