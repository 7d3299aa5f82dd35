package lookups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
)

// Repository exposes persistence for the seeded lookup tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindDealStatusByCode(ctx context.Context, code enums.DealStatusCode) (*models.DealStatus, error)
	ListDealStatuses(ctx context.Context) ([]models.DealStatus, error)

	CreateShipmentType(ctx context.Context, st *models.ShipmentType) (*models.ShipmentType, error)
	FindShipmentTypeByID(ctx context.Context, id uuid.UUID) (*models.ShipmentType, error)
	FindShipmentTypeByName(ctx context.Context, name string) (*models.ShipmentType, error)
	ListShipmentTypes(ctx context.Context) ([]models.ShipmentType, error)

	CurrentConstants(ctx context.Context) (*models.Constants, error)
	SaveConstants(ctx context.Context, c *models.Constants) (*models.Constants, error)

	ListCountries(ctx context.Context) ([]models.Country, error)

	CreateAccountProvider(ctx context.Context, p *models.AccountProvider) (*models.AccountProvider, error)
	ListAccountProviders(ctx context.Context) ([]models.AccountProvider, error)
}
