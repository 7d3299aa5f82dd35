package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
)

// Service computes shipment price quotes from the tunable constants.
type Service interface {
	Quote(ctx context.Context, weight float64, shipmentTypeID uuid.UUID) (*QuoteResult, error)
}

type lookupRepository interface {
	FindShipmentTypeByID(ctx context.Context, id uuid.UUID) (*models.ShipmentType, error)
	CurrentConstants(ctx context.Context) (*models.Constants, error)
}

// QuoteResult carries the computed price and the factors that produced it.
type QuoteResult struct {
	Price        decimal.Decimal `json:"price"`
	Weight       float64         `json:"weight"`
	TypeFactor   decimal.Decimal `json:"type_factor"`
	WeightFactor decimal.Decimal `json:"weight_factor"`
}

type service struct {
	lookups lookupRepository
}

// NewService wires the pricing dependencies.
func NewService(lookups lookupRepository) (Service, error) {
	if lookups == nil {
		return nil, fmt.Errorf("lookups repository required")
	}
	return &service{lookups: lookups}, nil
}

// Quote computes weight * type factor * global weight factor. Weights above
// the configured maximum are rejected before any lookup happens.
func (s *service) Quote(ctx context.Context, weight float64, shipmentTypeID uuid.UUID) (*QuoteResult, error) {
	if weight <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if shipmentTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment type id required")
	}

	constants, err := s.lookups.CurrentConstants(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "pricing constants not seeded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load constants")
	}
	if weight > constants.MaxWeight {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight exceeds the allowed maximum").
			WithDetails(map[string]any{"max_weight": constants.MaxWeight})
	}

	shipmentType, err := s.lookups.FindShipmentTypeByID(ctx, shipmentTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment type")
	}

	price := decimal.NewFromFloat(weight).
		Mul(shipmentType.Factor).
		Mul(constants.WeightFactor).
		Round(2)

	return &QuoteResult{
		Price:        price,
		Weight:       weight,
		TypeFactor:   shipmentType.Factor,
		WeightFactor: constants.WeightFactor,
	}, nil
}
