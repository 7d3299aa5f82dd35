package trips

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/outbox/payloads"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Service covers trip intake and catalog reads. Posting the same flight twice
// reuses the stored trip and only creates a fresh deal.
type Service interface {
	CreateWithDeal(ctx context.Context, input CreateWithDealInput) (*IntakeResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	DealsByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Deal, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Search(ctx context.Context, params SearchParams) (*ListResult, error)
}

// IntakeResult reports the trip (new or reused) and its fresh deal.
type IntakeResult struct {
	Trip       *models.Trip `json:"trip"`
	DealID     uuid.UUID    `json:"deal_id"`
	ReusedTrip bool         `json:"reused_trip"`
}

// ListResult wraps paginated trips plus the next page cursor.
type ListResult struct {
	Trips      []models.Trip `json:"trips"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx       txRunner
	repo     Repository
	dealRepo deals.Repository
	events   eventEmitter
	logg     *logger.Logger
}

// NewService wires the trip intake dependencies.
func NewService(tx txRunner, repo Repository, dealRepo deals.Repository, events eventEmitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("trips repository required")
	}
	if dealRepo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, dealRepo: dealRepo, events: events, logg: logg}, nil
}

// CreateWithDeal stores the trip if needed and always creates a waiting deal
// for the deliverer. Reposting the same flight only adds capacity.
func (s *service) CreateWithDeal(ctx context.Context, input CreateWithDealInput) (*IntakeResult, error) {
	if input.ActorApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller has no application profile")
	}
	if strings.TrimSpace(input.TripIdentifier) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip identifier required")
	}
	if strings.TrimSpace(input.TicketImage) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket image required")
	}
	if input.FlyTime.IsZero() || input.ArriveTime.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fly time and arrive time required")
	}
	if !input.ArriveTime.After(input.FlyTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "arrive time must be after fly time")
	}
	if input.FullWeight <= 0 || input.AvailableWeight <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weights must be positive")
	}
	if input.AvailableWeight > input.FullWeight {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available weight cannot exceed full weight")
	}

	var result IntakeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dealRepo := s.dealRepo.WithTx(tx)

		trip, err := repo.FindByDedupTuple(ctx, input.TripIdentifier, input.FlyTime, input.ArriveTime, input.FromID, input.ToID)
		switch {
		case err == nil:
			result.ReusedTrip = true
		case err == gorm.ErrRecordNotFound:
			trip = &models.Trip{
				ID:             uuid.New(),
				TripIdentifier: input.TripIdentifier,
				FlyTime:        input.FlyTime,
				ArriveTime:     input.ArriveTime,
				Details:        input.Details,
				TicketImage:    input.TicketImage,
				TripType:       input.TripType,
				Transit:        input.Transit,
				FromID:         input.FromID,
				ToID:           input.ToID,
			}
			if _, err := repo.Create(ctx, trip); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trip")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up trip")
		}

		status, err := dealRepo.FindStatusByCode(ctx, enums.DealStatusWaiting)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load waiting status")
		}

		arrival := input.ArriveTime
		actorApp := input.ActorApplicationID
		deal := &models.Deal{
			ID:              uuid.New(),
			FullWeight:      input.FullWeight,
			AvailableWeight: input.AvailableWeight,
			ArrivalDate:     &arrival,
			StatusID:        status.ID,
			DeliverID:       &actorApp,
			TripID:          &trip.ID,
		}
		if _, err := dealRepo.Create(ctx, deal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trip deal")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDealCreated,
			AggregateType: enums.AggregateDeal,
			AggregateID:   deal.ID,
			Actor: &outbox.ActorRef{
				UserID:        input.ActorUserID,
				ApplicationID: &actorApp,
				Role:          input.ActorRole,
			},
			Data: payloads.DealCreatedEvent{
				DealID:     deal.ID,
				StatusCode: enums.DealStatusWaiting.String(),
				DeliverID:  deal.DeliverID,
				TripID:     deal.TripID,
				Weights: payloads.WeightSnapshot{
					FullWeight:      deal.FullWeight,
					AvailableWeight: deal.AvailableWeight,
				},
			},
			Version:    1,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit deal created event")
		}

		result.Trip = trip
		result.DealID = deal.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"trip_id":     result.Trip.ID.String(),
		"deal_id":     result.DealID.String(),
		"reused_trip": result.ReusedTrip,
	}), "trip intake completed")
	return &result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip")
	}
	return trip, nil
}

func (s *service) DealsByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Deal, error) {
	if _, err := s.Get(ctx, tripID); err != nil {
		return nil, err
	}
	rows, err := s.repo.DealsByTrip(ctx, tripID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip deals")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trips")
	}
	return buildListResult(rows, next), nil
}

func (s *service) Search(ctx context.Context, params SearchParams) (*ListResult, error) {
	if params.Identifier == "" && params.From == "" && params.To == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier, from or to filter required")
	}
	query, err := buildListParams(pagination.Params{Limit: params.Limit, Cursor: params.Cursor})
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.Search(ctx, params.Identifier, params.From, params.To, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search trips")
	}
	return buildListResult(rows, next), nil
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

func buildListResult(rows []models.Trip, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Trips: rows, NextCursor: cursor}
}
