package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
)

// Repository exposes user, application and connection persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin retrieves the user matching the provided login.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// CreateApplication inserts the marketplace profile for a user.
func (r *Repository) CreateApplication(ctx context.Context, app *models.UserApplication) (*models.UserApplication, error) {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// FindApplicationByID loads a marketplace profile with its user.
func (r *Repository) FindApplicationByID(ctx context.Context, id uuid.UUID) (*models.UserApplication, error) {
	var app models.UserApplication
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// FindApplicationByUserID loads the marketplace profile owned by a user.
func (r *Repository) FindApplicationByUserID(ctx context.Context, userID uuid.UUID) (*models.UserApplication, error) {
	var app models.UserApplication
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&app, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplication applies the provided column updates to an application row.
func (r *Repository) UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.UserApplication{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CreateConnection inserts the token bundle for an application.
func (r *Repository) CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		return nil, err
	}
	return conn, nil
}

// FindConnectionByApplicationID loads the token bundle for an application.
func (r *Repository) FindConnectionByApplicationID(ctx context.Context, appID uuid.UUID) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).
		First(&conn, "user_application_id = ?", appID).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// UpdateConnection applies the provided column updates to a connection row.
func (r *Repository) UpdateConnection(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Updates(updates).Error
}
