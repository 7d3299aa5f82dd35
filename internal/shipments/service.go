package shipments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/internal/pricing"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/outbox/payloads"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Service covers shipment intake and catalog reads. Intake always creates a
// waiting deal around the batch; loose shipments only exist after a deal is
// torn down.
type Service interface {
	CreateBatch(ctx context.Context, input CreateBatchInput) (*BatchResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Search(ctx context.Context, params SearchParams) (*ListResult, error)
}

// BatchResult reports the created deal and its shipments.
type BatchResult struct {
	DealID    uuid.UUID         `json:"deal_id"`
	Shipments []models.Shipment `json:"shipments"`
	Weight    float64           `json:"weight"`
}

// ListResult wraps paginated shipments plus the next page cursor.
type ListResult struct {
	Shipments  []models.Shipment `json:"shipments"`
	NextCursor string            `json:"next_cursor,omitempty"`
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
	pricing  pricing.Service
	events   eventEmitter
	logg     *logger.Logger
}

// NewService wires the shipment intake dependencies.
func NewService(tx txRunner, repo Repository, dealRepo deals.Repository, quotes pricing.Service, events eventEmitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if dealRepo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, dealRepo: dealRepo, pricing: quotes, events: events, logg: logg}, nil
}

// CreateBatch persists the shipments and the waiting deal that owns them in
// one transaction. Shipments without a price get one quoted from their type.
func (s *service) CreateBatch(ctx context.Context, input CreateBatchInput) (*BatchResult, error) {
	if len(input.Shipments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipment required")
	}
	if input.ActorApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller has no application profile")
	}
	if input.ExpectedDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected date required")
	}

	rows := make([]models.Shipment, 0, len(input.Shipments))
	var sum float64
	for i, item := range input.Shipments {
		if item.Weight <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment weight must be positive").
				WithDetails(map[string]any{"index": i})
		}
		row := models.Shipment{
			ID:          uuid.New(),
			Weight:      item.Weight,
			Cost:        item.Cost,
			Price:       item.Price,
			URL:         item.URL,
			ImgURL:      item.ImgURL,
			Description: item.Description,
			Details:     item.Details,
			TypeID:      item.TypeID,
			FromID:      item.FromID,
			ToID:        item.ToID,
		}
		if row.Price == nil && row.TypeID != nil {
			quote, err := s.pricing.Quote(ctx, row.Weight, *row.TypeID)
			if err != nil {
				return nil, err
			}
			price := quote.Price
			row.Price = &price
		}
		sum += row.Weight
		rows = append(rows, row)
	}

	var result BatchResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dealRepo := s.dealRepo.WithTx(tx)

		status, err := dealRepo.FindStatusByCode(ctx, enums.DealStatusWaiting)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load waiting status")
		}

		expected := input.ExpectedDate
		actorApp := input.ActorApplicationID
		deal := &models.Deal{
			ID:              uuid.New(),
			FullWeight:      sum,
			AvailableWeight: sum,
			ExpectedDate:    &expected,
			StatusID:        status.ID,
			OwnerID:         &actorApp,
		}
		if _, err := dealRepo.Create(ctx, deal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment deal")
		}

		for i := range rows {
			dealID := deal.ID
			rows[i].DealID = &dealID
		}
		if err := repo.CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipments")
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
				OwnerID:    deal.OwnerID,
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

		result = BatchResult{DealID: deal.ID, Shipments: rows, Weight: sum}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"deal_id":     result.DealID.String(),
		"shipments":   len(result.Shipments),
		"full_weight": result.Weight,
	}), "shipment batch created")
	return &result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := buildListParams(pagination.Params{Limit: params.Limit, Cursor: params.Cursor})
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return buildListResult(rows, next), nil
}

func (s *service) Search(ctx context.Context, params SearchParams) (*ListResult, error) {
	if params.From == "" && params.To == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from or to filter required")
	}
	query, err := buildListParams(pagination.Params{Limit: params.Limit, Cursor: params.Cursor})
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.SearchByRoute(ctx, params.From, params.To, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search shipments")
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

func buildListResult(rows []models.Shipment, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Shipments: rows, NextCursor: cursor}
}
