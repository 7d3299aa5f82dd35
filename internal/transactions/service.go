package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Service covers the money records attached to deals.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Transaction, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	PartialUpdate(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput carries a new transaction. IDs are always server-assigned.
type CreateInput struct {
	ID          *uuid.UUID       `json:"id,omitempty"`
	FromAccount *string          `json:"from_account,omitempty"`
	ToAccount   *string          `json:"to_account,omitempty"`
	Fees        *decimal.Decimal `json:"fees,omitempty"`
	NetAmount   *decimal.Decimal `json:"net_amount,omitempty"`
	Details     *string          `json:"details,omitempty"`
	DealID      *uuid.UUID       `json:"deal_id,omitempty"`
	ProviderID  *uuid.UUID       `json:"provider_id,omitempty"`
}

// UpdateInput merges the non-nil fields onto an existing transaction.
type UpdateInput struct {
	FromAccount *string          `json:"from_account,omitempty"`
	ToAccount   *string          `json:"to_account,omitempty"`
	Fees        *decimal.Decimal `json:"fees,omitempty"`
	NetAmount   *decimal.Decimal `json:"net_amount,omitempty"`
	Details     *string          `json:"details,omitempty"`
	ProviderID  *uuid.UUID       `json:"provider_id,omitempty"`
}

// ListResult wraps paginated transactions plus the next page cursor.
type ListResult struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

type dealFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
}

type service struct {
	repo  Repository
	deals dealFinder
}

// NewService wires the transaction dependencies.
func NewService(repo Repository, deals dealFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if deals == nil {
		return nil, fmt.Errorf("deal finder required")
	}
	return &service{repo: repo, deals: deals}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Transaction, error) {
	if input.ID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id must not be set on create")
	}
	if input.Fees != nil && input.Fees.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
	}
	if input.NetAmount != nil && input.NetAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "net amount cannot be negative")
	}
	if input.DealID != nil {
		if _, err := s.deals.FindByID(ctx, *input.DealID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
		}
	}

	row := &models.Transaction{
		ID:          uuid.New(),
		FromAccount: input.FromAccount,
		ToAccount:   input.ToAccount,
		Fees:        input.Fees,
		NetAmount:   input.NetAmount,
		Details:     input.Details,
		DealID:      input.DealID,
		ProviderID:  input.ProviderID,
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}
	return row, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return row, nil
}

func (s *service) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Transaction, error) {
	if dealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	rows, err := s.repo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deal transactions")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query := listParams{Limit: pagination.LimitWithBuffer(params.Limit)}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	result := &ListResult{Transactions: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// PartialUpdate merges the non-nil fields only.
func (s *service) PartialUpdate(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	updates := make(map[string]any)
	if input.FromAccount != nil {
		updates["from_account"] = *input.FromAccount
	}
	if input.ToAccount != nil {
		updates["to_account"] = *input.ToAccount
	}
	if input.Fees != nil {
		if input.Fees.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
		}
		updates["fees"] = *input.Fees
	}
	if input.NetAmount != nil {
		if input.NetAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "net amount cannot be negative")
		}
		updates["net_amount"] = *input.NetAmount
	}
	if input.Details != nil {
		updates["details"] = *input.Details
	}
	if input.ProviderID != nil {
		updates["provider_id"] = *input.ProviderID
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete transaction")
	}
	return nil
}
