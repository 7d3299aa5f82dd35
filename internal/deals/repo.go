package deals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a deals repository bound to the provided DB. It also
// owns the offer and shipment row mutations finalization performs, so the
// whole acceptance runs against one transaction-bound instance.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// lockForUpdate applies a row lock on dialects that support it. sqlite has no
// FOR UPDATE; its writes are serialized by the single writer anyway.
func (r *repository) lockForUpdate(query *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

func (r *repository) Create(ctx context.Context, deal *models.Deal) (*models.Deal, error) {
	if err := r.db.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Trip").
		Preload("Shipments").
		Preload("Transaction").
		First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// FindSiblingsForUpdate locks every deal sharing the traveler and trip. The
// deterministic ordering keeps concurrent finalizations from deadlocking.
func (r *repository) FindSiblingsForUpdate(ctx context.Context, deliverID, tripID uuid.UUID) ([]models.Deal, error) {
	var rows []models.Deal
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Where("deliver_id = ? AND trip_id = ?", deliverID, tripID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateWeights(ctx context.Context, id uuid.UUID, fullWeight, availableWeight float64, version int64) error {
	result := r.db.WithContext(ctx).Model(&models.Deal{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"full_weight":      fullWeight,
			"available_weight": availableWeight,
			"version":          version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Deal{}).
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
	result := r.db.WithContext(ctx).Delete(&models.Deal{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ShipmentsByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DetachShipments(ctx context.Context, dealID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("deal_id = ?", dealID).
		Update("deal_id", nil)
	return result.RowsAffected, result.Error
}

func (r *repository) DetachShipment(ctx context.Context, shipmentID, dealID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("id = ? AND deal_id = ?", shipmentID, dealID).
		Update("deal_id", nil)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) ReassignShipments(ctx context.Context, shipmentIDs []uuid.UUID, dealID uuid.UUID) error {
	if len(shipmentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("id IN ?", shipmentIDs).
		Update("deal_id", dealID).Error
}

func (r *repository) FindOfferByPair(ctx context.Context, shipmentDealID, tripDealID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Where("shipment_deal_id = ? AND trip_deal_id = ?", shipmentDealID, tripDealID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// AcceptOffer flips the offer to accepted and repoints its trip side at the
// merged deal. The shipment side keeps the original id for history even though
// that row is about to be deleted.
func (r *repository) AcceptOffer(ctx context.Context, offerID, mergedDealID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Offer{}).
		Where("id = ?", offerID).
		Updates(map[string]any{
			"status":       enums.OfferStatusAccepted,
			"trip_deal_id": mergedDealID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CloseRivalOffers(ctx context.Context, shipmentDealID, acceptedOfferID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Offer{}).
		Where("shipment_deal_id = ? AND id <> ?", shipmentDealID, acceptedOfferID).
		Update("status", enums.OfferStatusClosed)
	return result.RowsAffected, result.Error
}

func (r *repository) FindStatusByCode(ctx context.Context, code enums.DealStatusCode) (*models.DealStatus, error) {
	var status models.DealStatus
	err := r.db.WithContext(ctx).First(&status, "code = ?", code.String()).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Deal, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Deal{}).
		Preload("Status").
		Preload("Trip").
		Preload("Shipments")
	return r.page(query, params)
}

func (r *repository) RecentShipmentDeals(ctx context.Context, since time.Time, params listParams) ([]models.Deal, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Deal{}).
		Preload("Status").
		Preload("Shipments").
		Where("deals.owner_id IS NOT NULL AND deals.trip_id IS NULL").
		Where("deals.created_at >= ?", since)
	return r.page(query, params)
}

func (r *repository) RecentTripDeals(ctx context.Context, since time.Time, params listParams) ([]models.Deal, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Deal{}).
		Preload("Status").
		Preload("Trip").
		Where("deals.deliver_id IS NOT NULL AND deals.trip_id IS NOT NULL").
		Where("deals.created_at >= ?", since)
	return r.page(query, params)
}

func (r *repository) SearchTripDeals(ctx context.Context, filters SearchFilters, params listParams) ([]models.Deal, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Deal{}).
		Preload("Status").
		Preload("Trip").
		Where("deals.deliver_id IS NOT NULL AND deals.trip_id IS NOT NULL")

	if filters.From != "" {
		query = query.Where(
			"deals.trip_id IN (?)",
			r.db.Model(&models.Trip{}).Select("id").
				Where("from_id IN (?)", r.locationMatches(filters.From)),
		)
	}
	if filters.To != "" {
		query = query.Where(
			"deals.trip_id IN (?)",
			r.db.Model(&models.Trip{}).Select("id").
				Where("to_id IN (?)", r.locationMatches(filters.To)),
		)
	}
	if filters.MinAvailableWeight > 0 {
		query = query.Where("deals.available_weight >= ?", filters.MinAvailableWeight)
	}
	if filters.DateFrom != nil {
		query = query.Where("deals.arrival_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("deals.arrival_date <= ?", *filters.DateTo)
	}

	return r.page(query, params)
}

func (r *repository) SearchShipmentDeals(ctx context.Context, filters SearchFilters, params listParams) ([]models.Deal, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Deal{}).
		Preload("Status").
		Preload("Shipments").
		Where("deals.owner_id IS NOT NULL AND deals.trip_id IS NULL")

	if filters.From != "" {
		query = query.Where(
			"deals.id IN (?)",
			r.db.Model(&models.Shipment{}).Select("deal_id").
				Where("deal_id IS NOT NULL").
				Where("from_id IN (?)", r.locationMatches(filters.From)),
		)
	}
	if filters.To != "" {
		query = query.Where(
			"deals.id IN (?)",
			r.db.Model(&models.Shipment{}).Select("deal_id").
				Where("deal_id IS NOT NULL").
				Where("to_id IN (?)", r.locationMatches(filters.To)),
		)
	}
	if filters.MaxFullWeight > 0 {
		query = query.Where("deals.full_weight <= ?", filters.MaxFullWeight)
	}
	if filters.DateFrom != nil {
		query = query.Where("deals.expected_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("deals.expected_date <= ?", *filters.DateTo)
	}

	return r.page(query, params)
}

func (r *repository) locationMatches(term string) *gorm.DB {
	pattern := "%" + term + "%"
	return r.db.Model(&models.Location{}).Select("id").
		Where("LOWER(country) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?) OR LOWER(airport) LIKE LOWER(?)",
			pattern, pattern, pattern)
}

func (r *repository) page(query *gorm.DB, params listParams) ([]models.Deal, *pagination.Cursor, error) {
	if params.Cursor != nil {
		query = query.Where(
			"(deals.created_at, deals.id) > (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Deal
	err := query.Order("deals.created_at ASC, deals.id ASC").
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
