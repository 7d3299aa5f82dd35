package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Repository exposes persistence for the airport location catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, location *models.Location) (*models.Location, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindByAirport(ctx context.Context, airport string) (*models.Location, error)
	ExistingAirports(ctx context.Context, airports []string) (map[string]struct{}, error)
	InsertMissing(ctx context.Context, locations []models.Location) (int, error)
	List(ctx context.Context, params listParams) ([]models.Location, *pagination.Cursor, error)
	Search(ctx context.Context, field, value string, params listParams) ([]models.Location, *pagination.Cursor, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}
