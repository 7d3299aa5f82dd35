package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a locations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) FindByAirport(ctx context.Context, airport string) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).Where("airport = ?", airport).First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) ExistingAirports(ctx context.Context, airports []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(airports))
	if len(airports) == 0 {
		return existing, nil
	}

	// Chunked to stay under driver parameter limits on full catalog refreshes.
	const chunkSize = 500
	for start := 0; start < len(airports); start += chunkSize {
		end := start + chunkSize
		if end > len(airports) {
			end = len(airports)
		}

		var names []string
		err := r.db.WithContext(ctx).
			Model(&models.Location{}).
			Where("airport IN ?", airports[start:end]).
			Pluck("airport", &names).Error
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			existing[name] = struct{}{}
		}
	}
	return existing, nil
}

func (r *repository) InsertMissing(ctx context.Context, locations []models.Location) (int, error) {
	if len(locations) == 0 {
		return 0, nil
	}

	inserted := 0
	const batchSize = 200
	for start := 0; start < len(locations); start += batchSize {
		end := start + batchSize
		if end > len(locations) {
			end = len(locations)
		}
		batch := locations[start:end]
		if err := r.db.WithContext(ctx).Create(&batch).Error; err != nil {
			return inserted, err
		}
		inserted += len(batch)
	}
	return inserted, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Location, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Location{})
	return r.page(query, params)
}

var searchableFields = map[string]string{
	"country": "country",
	"city":    "city",
	"airport": "airport",
}

func (r *repository) Search(ctx context.Context, field, value string, params listParams) ([]models.Location, *pagination.Cursor, error) {
	column, ok := searchableFields[field]
	if !ok {
		return nil, nil, gorm.ErrInvalidField
	}

	query := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("LOWER("+column+") LIKE LOWER(?)", "%"+value+"%")
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params listParams) ([]models.Location, *pagination.Cursor, error) {
	if params.Cursor != nil {
		query = query.Where(
			"(created_at, id) > (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Location
	err := query.Order("created_at ASC, id ASC").Limit(params.Limit).Find(&rows).Error
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

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Location{}).Count(&count).Error
	return count, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Location{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
