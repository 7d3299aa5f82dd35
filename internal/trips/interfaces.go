package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Repository exposes persistence for trips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindByDedupTuple(ctx context.Context, identifier string, flyTime, arriveTime time.Time, fromID, toID *uuid.UUID) (*models.Trip, error)
	DealsByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Deal, error)
	List(ctx context.Context, params listParams) ([]models.Trip, *pagination.Cursor, error)
	Search(ctx context.Context, identifier, from, to string, params listParams) ([]models.Trip, *pagination.Cursor, error)
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}
