package lookups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lookups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindDealStatusByCode(ctx context.Context, code enums.DealStatusCode) (*models.DealStatus, error) {
	var status models.DealStatus
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repository) ListDealStatuses(ctx context.Context) ([]models.DealStatus, error) {
	var statuses []models.DealStatus
	err := r.db.WithContext(ctx).Order("sequence ASC").Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repository) CreateShipmentType(ctx context.Context, st *models.ShipmentType) (*models.ShipmentType, error) {
	if err := r.db.WithContext(ctx).Create(st).Error; err != nil {
		return nil, err
	}
	return st, nil
}

func (r *repository) FindShipmentTypeByID(ctx context.Context, id uuid.UUID) (*models.ShipmentType, error) {
	var st models.ShipmentType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *repository) FindShipmentTypeByName(ctx context.Context, name string) (*models.ShipmentType, error) {
	var st models.ShipmentType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *repository) ListShipmentTypes(ctx context.Context) ([]models.ShipmentType, error) {
	var types []models.ShipmentType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repository) CurrentConstants(ctx context.Context) (*models.Constants, error) {
	var c models.Constants
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) SaveConstants(ctx context.Context, c *models.Constants) (*models.Constants, error) {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) ListCountries(ctx context.Context) ([]models.Country, error) {
	var countries []models.Country
	err := r.db.WithContext(ctx).Order("country ASC").Find(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *repository) CreateAccountProvider(ctx context.Context, p *models.AccountProvider) (*models.AccountProvider, error) {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) ListAccountProviders(ctx context.Context) ([]models.AccountProvider, error) {
	var providers []models.AccountProvider
	err := r.db.WithContext(ctx).Order("name ASC").Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}
