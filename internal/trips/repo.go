package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a trips repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := r.db.WithContext(ctx).Create(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.WithContext(ctx).
		Preload("From").
		Preload("To").
		First(&trip, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// FindByDedupTuple matches the exact flight posting: same identifier, times
// and route. NULL endpoints only match NULL.
func (r *repository) FindByDedupTuple(ctx context.Context, identifier string, flyTime, arriveTime time.Time, fromID, toID *uuid.UUID) (*models.Trip, error) {
	query := r.db.WithContext(ctx).
		Where("trip_identifier = ? AND fly_time = ? AND arrive_time = ?", identifier, flyTime, arriveTime)
	if fromID != nil {
		query = query.Where("from_id = ?", *fromID)
	} else {
		query = query.Where("from_id IS NULL")
	}
	if toID != nil {
		query = query.Where("to_id = ?", *toID)
	} else {
		query = query.Where("to_id IS NULL")
	}

	var trip models.Trip
	if err := query.First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) DealsByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Deal, error) {
	var rows []models.Deal
	err := r.db.WithContext(ctx).
		Preload("Status").
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Trip, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Trip{}).
		Preload("From").
		Preload("To")
	return r.page(query, params)
}

func (r *repository) Search(ctx context.Context, identifier, from, to string, params listParams) ([]models.Trip, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Trip{}).
		Preload("From").
		Preload("To")

	if identifier != "" {
		query = query.Where("LOWER(trip_identifier) LIKE LOWER(?)", "%"+identifier+"%")
	}
	if from != "" {
		query = query.Where("from_id IN (?)", r.locationMatches(from))
	}
	if to != "" {
		query = query.Where("to_id IN (?)", r.locationMatches(to))
	}

	return r.page(query, params)
}

func (r *repository) locationMatches(term string) *gorm.DB {
	pattern := "%" + term + "%"
	return r.db.Model(&models.Location{}).Select("id").
		Where("LOWER(country) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?) OR LOWER(airport) LIKE LOWER(?)",
			pattern, pattern, pattern)
}

func (r *repository) page(query *gorm.DB, params listParams) ([]models.Trip, *pagination.Cursor, error) {
	if params.Cursor != nil {
		query = query.Where(
			"(trips.created_at, trips.id) > (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Trip
	err := query.Order("trips.created_at ASC, trips.id ASC").
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if params.Limit > 0 && len(rows) == params.Limit {
		rows = rows[:len(rows)-1]
		tail := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID}
	}
	return rows, next, nil
}
