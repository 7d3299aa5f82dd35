package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, shipments []models.Shipment) error {
	if len(shipments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&shipments).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("From").
		Preload("To").
		First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("From").
		Preload("To").
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Shipment, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Preload("Type").
		Preload("From").
		Preload("To")
	return r.page(query, params)
}

// SearchByRoute matches shipments whose from/to location country, city or
// airport contains the given values.
func (r *repository) SearchByRoute(ctx context.Context, from, to string, params listParams) ([]models.Shipment, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Preload("Type").
		Preload("From").
		Preload("To")

	if from != "" {
		query = query.Where(
			"from_id IN (?)",
			r.db.Model(&models.Location{}).Select("id").
				Where("LOWER(country) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?) OR LOWER(airport) LIKE LOWER(?)",
					"%"+from+"%", "%"+from+"%", "%"+from+"%"),
		)
	}
	if to != "" {
		query = query.Where(
			"to_id IN (?)",
			r.db.Model(&models.Location{}).Select("id").
				Where("LOWER(country) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?) OR LOWER(airport) LIKE LOWER(?)",
					"%"+to+"%", "%"+to+"%", "%"+to+"%"),
		)
	}

	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params listParams) ([]models.Shipment, *pagination.Cursor, error) {
	if params.Cursor != nil {
		query = query.Where(
			"(shipments.created_at, shipments.id) > (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Shipment
	err := query.Order("shipments.created_at ASC, shipments.id ASC").
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
