package lookups

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/closurehq/laser-backend/pkg/db"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
)

// Service defines read access to the lookup tables plus the admin-only
// mutations for shipment types, constants and account providers.
type Service interface {
	DealStatuses(ctx context.Context) ([]models.DealStatus, error)
	DealStatusByCode(ctx context.Context, code enums.DealStatusCode) (*models.DealStatus, error)
	ShipmentTypes(ctx context.Context) ([]models.ShipmentType, error)
	CreateShipmentType(ctx context.Context, input CreateShipmentTypeInput) (*models.ShipmentType, error)
	Constants(ctx context.Context) (*models.Constants, error)
	UpdateConstants(ctx context.Context, input UpdateConstantsInput) (*models.Constants, error)
	Countries(ctx context.Context) ([]models.Country, error)
	AccountProviders(ctx context.Context) ([]models.AccountProvider, error)
	CreateAccountProvider(ctx context.Context, name string) (*models.AccountProvider, error)
}

// CreateShipmentTypeInput carries a new parcel category and its pricing factor.
type CreateShipmentTypeInput struct {
	Name   string
	Factor decimal.Decimal
}

// UpdateConstantsInput patches the operator-tunable globals. Nil fields are
// left untouched.
type UpdateConstantsInput struct {
	WeightFactor *decimal.Decimal
	MaxWeight    *float64
}

type service struct {
	repo Repository
}

// NewService wires the lookups dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lookups repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) DealStatuses(ctx context.Context) ([]models.DealStatus, error) {
	statuses, err := s.repo.ListDealStatuses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deal statuses")
	}
	return statuses, nil
}

func (s *service) DealStatusByCode(ctx context.Context, code enums.DealStatusCode) (*models.DealStatus, error) {
	status, err := s.repo.FindDealStatusByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal status not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal status")
	}
	return status, nil
}

func (s *service) ShipmentTypes(ctx context.Context) ([]models.ShipmentType, error) {
	types, err := s.repo.ListShipmentTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipment types")
	}
	return types, nil
}

func (s *service) CreateShipmentType(ctx context.Context, input CreateShipmentTypeInput) (*models.ShipmentType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment type name required")
	}
	if input.Factor.IsNegative() || input.Factor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment type factor must be positive")
	}

	st := &models.ShipmentType{Name: name, Factor: input.Factor}
	created, err := s.repo.CreateShipmentType(ctx, st)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "shipment type already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment type")
	}
	return created, nil
}

func (s *service) Constants(ctx context.Context) (*models.Constants, error) {
	c, err := s.repo.CurrentConstants(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "constants not seeded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load constants")
	}
	return c, nil
}

func (s *service) UpdateConstants(ctx context.Context, input UpdateConstantsInput) (*models.Constants, error) {
	c, err := s.Constants(ctx)
	if err != nil {
		return nil, err
	}

	if input.WeightFactor != nil {
		if input.WeightFactor.IsNegative() || input.WeightFactor.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight factor must be positive")
		}
		c.WeightFactor = *input.WeightFactor
	}
	if input.MaxWeight != nil {
		if *input.MaxWeight <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max weight must be positive")
		}
		c.MaxWeight = *input.MaxWeight
	}

	saved, err := s.repo.SaveConstants(ctx, c)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save constants")
	}
	return saved, nil
}

func (s *service) Countries(ctx context.Context) ([]models.Country, error) {
	countries, err := s.repo.ListCountries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list countries")
	}
	return countries, nil
}

func (s *service) AccountProviders(ctx context.Context) ([]models.AccountProvider, error) {
	providers, err := s.repo.ListAccountProviders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list account providers")
	}
	return providers, nil
}

func (s *service) CreateAccountProvider(ctx context.Context, name string) (*models.AccountProvider, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider name required")
	}

	provider, err := s.repo.CreateAccountProvider(ctx, &models.AccountProvider{Name: trimmed})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "account provider already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account provider")
	}
	return provider, nil
}
