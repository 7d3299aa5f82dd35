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

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

// FindByID loads the offer with both deal views. A closed offer's shipment
// deal may be gone; the preload then simply stays nil.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Preload("ShipmentDeal").
		Preload("ShipmentDeal.Status").
		Preload("TripDeal").
		Preload("TripDeal.Status").
		Preload("TripDeal.Trip").
		First(&offer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindByPair(ctx context.Context, shipmentDealID, tripDealID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("shipment_deal_id = ? AND trip_deal_id = ?", shipmentDealID, tripDealID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindPendingBefore returns pending offers created before the cutoff, oldest
// first.
func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OfferStatusPending, cutoff).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Offer{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Offer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, status *enums.OfferStatus, params listParams) ([]models.Offer, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Offer{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.page(query, params)
}

// ListForApplication returns every offer the application touches: sent by it,
// or sitting on a deal it owns or delivers.
func (r *repository) ListForApplication(ctx context.Context, applicationID uuid.UUID, params listParams) ([]models.Offer, *pagination.Cursor, error) {
	ownedDeals := r.db.Model(&models.Deal{}).Select("id").Where("owner_id = ?", applicationID)
	deliveredDeals := r.db.Model(&models.Deal{}).Select("id").Where("deliver_id = ?", applicationID)

	query := r.db.WithContext(ctx).Model(&models.Offer{}).
		Where(
			"sender_id = ? OR shipment_deal_id IN (?) OR trip_deal_id IN (?)",
			applicationID, ownedDeals, deliveredDeals,
		)
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params listParams) ([]models.Offer, *pagination.Cursor, error) {
	if params.Cursor != nil {
		query = query.Where(
			"(offers.created_at, offers.id) > (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Offer
	err := query.Order("offers.created_at ASC, offers.id ASC").
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
