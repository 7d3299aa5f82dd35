package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/internal/notifications"
	"github.com/closurehq/laser-backend/pkg/db/models"
	dbpkg "github.com/closurehq/laser-backend/pkg/db"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/outbox/payloads"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Service runs the offer lifecycle: a shipper or traveler proposes a match
// between two deals, the counterparty gets notified, and acceptance later
// hands over to the deals service.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Offer, error)
	Get(ctx context.Context, id uuid.UUID) (*OfferDetail, error)
	PartialUpdate(ctx context.Context, id uuid.UUID, input UpdateInput) (*OfferDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListForUser(ctx context.Context, applicationID uuid.UUID, params ListParams) (*ListResult, error)
}

// ListResult wraps paginated offers plus the next page cursor.
type ListResult struct {
	Offers     []models.Offer `json:"offers"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, input notifications.NotifyInput) (*models.Notification, error)
}

type connectionFinder interface {
	FindConnectionByApplicationID(ctx context.Context, appID uuid.UUID) (*models.Connection, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	dealRepo    deals.Repository
	notify      notifier
	connections connectionFinder
	events      eventEmitter
	logg        *logger.Logger
}

// NewService wires the offer lifecycle dependencies.
func NewService(tx txRunner, repo Repository, dealRepo deals.Repository, notify notifier, connections connectionFinder, events eventEmitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if dealRepo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if connections == nil {
		return nil, fmt.Errorf("connection finder required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		dealRepo:    dealRepo,
		notify:      notify,
		connections: connections,
		events:      events,
		logg:        logg,
	}, nil
}

// Create proposes a match. The offer lands as pending; the counterparty gets
// a durable notification and a best-effort push.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Offer, error) {
	if input.ShipmentDealID == uuid.Nil || input.TripDealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment deal id and trip deal id required")
	}
	if input.ActorApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller has no application profile")
	}

	var (
		offer        *models.Offer
		counterparty *uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dealRepo := s.dealRepo.WithTx(tx)

		shipmentDeal, err := dealRepo.FindByIDForUpdate(ctx, input.ShipmentDealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment deal")
		}
		if !shipmentDeal.IsShipmentDeal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal is not a shipment deal")
		}

		tripDeal, err := dealRepo.FindByIDForUpdate(ctx, input.TripDealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "trip deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip deal")
		}
		if !tripDeal.IsTripDeal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal is not a trip deal")
		}

		if _, err := repo.FindByPair(ctx, input.ShipmentDealID, input.TripDealID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer already exists")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check offer pair")
		}

		if shipmentDeal.FullWeight > tripDeal.AvailableWeight {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipment weight exceeds trip capacity").
				WithDetails(map[string]any{
					"full_weight":      shipmentDeal.FullWeight,
					"available_weight": tripDeal.AvailableWeight,
				})
		}

		actorApp := input.ActorApplicationID
		row := &models.Offer{
			ID:             uuid.New(),
			ShipmentDealID: input.ShipmentDealID,
			TripDealID:     input.TripDealID,
			Status:         enums.OfferStatusPending,
			SenderID:       &actorApp,
		}
		if _, err := repo.Create(ctx, row); err != nil {
			// the unique index is the real guard against a racing duplicate
			if dbpkg.IsUniqueViolation(err, "idx_offers_pair") {
				return pkgerrors.New(pkgerrors.CodeConflict, "offer already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
		}

		counterparty = counterpartyOf(shipmentDeal, tripDeal, actorApp)

		event := outbox.DomainEvent{
			EventType:     enums.EventOfferCreated,
			AggregateType: enums.AggregateOffer,
			AggregateID:   row.ID,
			Actor: &outbox.ActorRef{
				UserID:        input.ActorUserID,
				ApplicationID: &actorApp,
				Role:          input.ActorRole,
			},
			Data: payloads.OfferCreatedEvent{
				OfferID:        row.ID,
				ShipmentDealID: row.ShipmentDealID,
				TripDealID:     row.TripDealID,
				SenderID:       row.SenderID,
				ReceiverID:     counterparty,
			},
			Version:    1,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit offer created event")
		}

		offer = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	// outside the transaction: push delivery must not roll back the offer
	if counterparty != nil {
		s.notifyCounterparty(ctx, offer, *counterparty)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"offer_id":         offer.ID.String(),
		"shipment_deal_id": offer.ShipmentDealID.String(),
		"trip_deal_id":     offer.TripDealID.String(),
	}), "offer created")
	return offer, nil
}

// counterpartyOf picks whichever of owner/deliverer did not initiate.
func counterpartyOf(shipmentDeal, tripDeal *models.Deal, actorApp uuid.UUID) *uuid.UUID {
	if shipmentDeal.OwnerID != nil && *shipmentDeal.OwnerID != actorApp {
		return shipmentDeal.OwnerID
	}
	if tripDeal.DeliverID != nil && *tripDeal.DeliverID != actorApp {
		return tripDeal.DeliverID
	}
	return nil
}

func (s *service) notifyCounterparty(ctx context.Context, offer *models.Offer, counterparty uuid.UUID) {
	var token *string
	conn, err := s.connections.FindConnectionByApplicationID(ctx, counterparty)
	if err == nil && conn != nil {
		token = conn.FCMToken
	} else if err != nil && err != gorm.ErrRecordNotFound {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "load counterparty connection failed")
	}

	offerID := offer.ID
	_, err = s.notify.Notify(ctx, notifications.NotifyInput{
		UserApplicationID: counterparty,
		Kind:              enums.NotificationKindOfferReceived,
		Title:             "New offer",
		Body:              "You have received a new offer.",
		OfferID:           &offerID,
		FCMToken:          token,
		Data: map[string]string{
			"offer_id": offerID.String(),
		},
	})
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"offer_id": offerID.String(),
			"error":    err.Error(),
		}), "counterparty notification failed")
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OfferDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return detailOf(offer), nil
}

// PartialUpdate merges the non-nil fields and returns the refreshed detail.
func (s *service) PartialUpdate(ctx context.Context, id uuid.UUID, input UpdateInput) (*OfferDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}

	updates := make(map[string]any)
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown offer status")
		}
		updates["status"] = *input.Status
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete offer")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.List(ctx, params.Status, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListForUser(ctx context.Context, applicationID uuid.UUID, params ListParams) (*ListResult, error) {
	if applicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller has no application profile")
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListForApplication(ctx, applicationID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers for user")
	}
	return buildListResult(rows, next), nil
}

func detailOf(offer *models.Offer) *OfferDetail {
	detail := &OfferDetail{Offer: *offer}
	detail.ShipmentDeal = offer.ShipmentDeal
	detail.TripDeal = offer.TripDeal
	return detail
}

func buildListParams(params ListParams) (listParams, error) {
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

func buildListResult(rows []models.Offer, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Offers: rows, NextCursor: cursor}
}
