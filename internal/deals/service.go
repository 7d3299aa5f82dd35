package deals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/outbox/payloads"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// recentWindow bounds the "recent deals" listings.
const recentWindow = 10 * 24 * time.Hour

// Service defines the deal lifecycle operations. Finalize is the matching
// core: it merges an accepted offer's two deals into one under row locks.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	ShipmentsByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Shipment, error)
	RecentShipmentDeals(ctx context.Context, params pagination.Params) (*ListResult, error)
	RecentTripDeals(ctx context.Context, params pagination.Params) (*ListResult, error)
	SearchTrips(ctx context.Context, filters SearchFilters, params pagination.Params) (*ListResult, error)
	SearchShipments(ctx context.Context, filters SearchFilters, params pagination.Params) (*ListResult, error)
	UpdateStatus(ctx context.Context, dealID uuid.UUID, code enums.DealStatusCode) (*models.Deal, error)
	Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error)
	Delete(ctx context.Context, id uuid.UUID, actor ActorInput) error
	RemoveShipment(ctx context.Context, shipmentID, dealID uuid.UUID, actor ActorInput) error
}

// ListResult wraps paginated deals plus the next page cursor.
type ListResult struct {
	Deals      []models.Deal `json:"deals"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx     txRunner
	repo   Repository
	events eventEmitter
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the deal service dependencies.
func NewService(tx txRunner, repo Repository, events eventEmitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, events: events, logg: logg, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	deal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	return deal, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deals")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ShipmentsByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Shipment, error) {
	if dealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if _, err := s.Get(ctx, dealID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ShipmentsByDeal(ctx, dealID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal shipments")
	}
	return rows, nil
}

func (s *service) RecentShipmentDeals(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.RecentShipmentDeals(ctx, s.now().Add(-recentWindow), query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent shipment deals")
	}
	return buildListResult(rows, next), nil
}

func (s *service) RecentTripDeals(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.RecentTripDeals(ctx, s.now().Add(-recentWindow), query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent trip deals")
	}
	return buildListResult(rows, next), nil
}

func (s *service) SearchTrips(ctx context.Context, filters SearchFilters, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.SearchTripDeals(ctx, filters, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search trip deals")
	}
	return buildListResult(rows, next), nil
}

func (s *service) SearchShipments(ctx context.Context, filters SearchFilters, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.SearchShipmentDeals(ctx, filters, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search shipment deals")
	}
	return buildListResult(rows, next), nil
}

func (s *service) UpdateStatus(ctx context.Context, dealID uuid.UUID, code enums.DealStatusCode) (*models.Deal, error) {
	if dealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if !code.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown deal status")
	}
	status, err := s.repo.FindStatusByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "deal status rows not seeded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal status")
	}
	if err := s.repo.Update(ctx, dealID, map[string]any{"status_id": status.ID}); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update deal status")
	}
	return s.Get(ctx, dealID)
}

// Finalize merges an offer's shipment deal into its trip deal. Everything
// runs in a single transaction: weight rebalancing across every deal sharing
// (deliver, trip), offer acceptance, rival closure and the removal of the
// original shipment deal either all land or none do.
func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	if input.ShipmentDealID == uuid.Nil || input.TripDealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment deal id and trip deal id required")
	}

	var result FinalizeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shipmentDeal, err := repo.FindByIDForUpdate(ctx, input.ShipmentDealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment deal")
		}
		if !shipmentDeal.IsShipmentDeal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal is not a shipment deal")
		}

		tripDeal, err := repo.FindByIDForUpdate(ctx, input.TripDealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "trip deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip deal")
		}
		if !tripDeal.IsTripDeal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal is not a trip deal")
		}

		offer, err := repo.FindOfferByPair(ctx, shipmentDeal.ID, tripDeal.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		if offer.Status != enums.OfferStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "offer already resolved")
		}

		shipments, err := repo.ShipmentsByDeal(ctx, shipmentDeal.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
		}
		if len(shipments) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment deal has no shipments")
		}
		var sum float64
		shipmentIDs := make([]uuid.UUID, 0, len(shipments))
		for _, shipment := range shipments {
			sum += shipment.Weight
			shipmentIDs = append(shipmentIDs, shipment.ID)
		}

		status, err := repo.FindStatusByCode(ctx, enums.DealStatusAgreement)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agreement status")
		}

		siblings, err := repo.FindSiblingsForUpdate(ctx, *tripDeal.DeliverID, *tripDeal.TripID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock co-trip deals")
		}

		var mergedFull, mergedAvailable float64
		for i, sibling := range siblings {
			available := sibling.AvailableWeight - sum
			if available < 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "negative weight").
					WithDetails(map[string]any{
						"deal_id":          sibling.ID,
						"available_weight": sibling.AvailableWeight,
						"requested_weight": sum,
					})
			}
			full := sibling.FullWeight + sum
			if err := repo.UpdateWeights(ctx, sibling.ID, full, available, sibling.Version); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "deal changed concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rebalance deal weights")
			}
			if i == 0 {
				mergedFull, mergedAvailable = full, available
			}
		}

		merged := &models.Deal{
			ID:              uuid.New(),
			TotalPrice:      shipmentDeal.TotalPrice,
			FullWeight:      mergedFull,
			AvailableWeight: mergedAvailable,
			ArrivalDate:     tripDeal.ArrivalDate,
			ExpectedDate:    shipmentDeal.ExpectedDate,
			Details:         shipmentDeal.Details,
			StatusID:        status.ID,
			OwnerID:         shipmentDeal.OwnerID,
			DeliverID:       tripDeal.DeliverID,
			TripID:          tripDeal.TripID,
		}
		if _, err := repo.Create(ctx, merged); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merged deal")
		}

		if err := repo.AcceptOffer(ctx, offer.ID, merged.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept offer")
		}
		closed, err := repo.CloseRivalOffers(ctx, shipmentDeal.ID, offer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close rival offers")
		}

		if _, err := repo.DetachShipments(ctx, shipmentDeal.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach shipments")
		}
		if err := repo.Update(ctx, shipmentDeal.ID, map[string]any{
			"owner_id":   nil,
			"deliver_id": nil,
			"trip_id":    nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear shipment deal references")
		}
		if err := repo.Delete(ctx, shipmentDeal.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shipment deal")
		}
		if err := repo.ReassignShipments(ctx, shipmentIDs, merged.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign shipments")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDealFinalized,
			AggregateType: enums.AggregateDeal,
			AggregateID:   merged.ID,
			Actor:         actorRef(input.ActorUserID, input.ActorApplicationID, input.ActorRole),
			Data: payloads.DealFinalizedEvent{
				DealID:         merged.ID,
				ShipmentDealID: shipmentDeal.ID,
				TripDealID:     tripDeal.ID,
				OfferID:        offer.ID,
				OwnerID:        merged.OwnerID,
				DeliverID:      merged.DeliverID,
				TripID:         merged.TripID,
				ShipmentIDs:    shipmentIDs,
				Weights: payloads.WeightSnapshot{
					FullWeight:      merged.FullWeight,
					AvailableWeight: merged.AvailableWeight,
				},
				FinalizedAt: s.now().UTC(),
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit deal finalized event")
		}

		result = FinalizeResult{
			MergedDealID:      merged.ID,
			OfferID:           offer.ID,
			MovedShipments:    len(shipmentIDs),
			ClosedRivalOffers: closed,
			RebalancedDeals:   len(siblings),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"merged_deal_id":      result.MergedDealID.String(),
		"offer_id":            result.OfferID.String(),
		"moved_shipments":     result.MovedShipments,
		"closed_rival_offers": result.ClosedRivalOffers,
	}), "deal finalized")
	return &result, nil
}

// Delete removes a deal after explicitly nulling every back-reference it
// owns. Shipments return to the open pool rather than being cascaded away.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor ActorInput) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}

	var detached int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByIDForUpdate(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
		}

		var err error
		detached, err = repo.DetachShipments(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach shipments")
		}
		if err := repo.Update(ctx, id, map[string]any{
			"owner_id":   nil,
			"deliver_id": nil,
			"trip_id":    nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear deal references")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deal")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDealDeleted,
			AggregateType: enums.AggregateDeal,
			AggregateID:   id,
			Actor:         actorRef(actor.UserID, actor.ApplicationID, actor.Role),
			Data: payloads.DealDeletedEvent{
				DealID:            id,
				DetachedShipments: int(detached),
				DeletedAt:         s.now().UTC(),
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit deal deleted event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"deal_id":            id.String(),
		"detached_shipments": detached,
	}), "deal deleted")
	return nil
}

// RemoveShipment detaches a single shipment from a deal without touching the
// deal itself.
func (s *service) RemoveShipment(ctx context.Context, shipmentID, dealID uuid.UUID, actor ActorInput) error {
	if shipmentID == uuid.Nil || dealID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment id and deal id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		detached, err := repo.DetachShipment(ctx, shipmentID, dealID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach shipment")
		}
		if !detached {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not attached to deal")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventShipmentDetached,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipmentID,
			Actor:         actorRef(actor.UserID, actor.ApplicationID, actor.Role),
			Data: payloads.ShipmentDetachedEvent{
				ShipmentID: shipmentID,
				DealID:     dealID,
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit shipment detached event")
		}
		return nil
	})
}

func actorRef(userID uuid.UUID, applicationID *uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID:        userID,
		ApplicationID: applicationID,
		Role:          role.String(),
	}
}

func buildListParams(params pagination.Params) (listParams, error) {
	query := listParams{Limit: pagination.LimitWithBuffer(params.Limit)}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func buildListResult(rows []models.Deal, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Deals: rows, NextCursor: cursor}
}
