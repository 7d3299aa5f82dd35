package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/users"
	"github.com/closurehq/laser-backend/pkg/config"
	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/security"
	"github.com/closurehq/laser-backend/pkg/types"
)

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.ProfileDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	CreateApplication(ctx context.Context, app *models.UserApplication) (*models.UserApplication, error)
	CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Register creates the user, their marketplace application, and an empty
// connection row in one transaction.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.ProfileDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	login := strings.ToLower(strings.TrimSpace(req.Login))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if login == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "login is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var profile *users.ProfileDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if _, err := userRepo.FindByLogin(ctx, login); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "login already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user login")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Login:        login,
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			LangKey:      req.LangKey,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		app, err := userRepo.CreateApplication(ctx, &models.UserApplication{
			UserID:      user.ID,
			PhoneNumber: req.Phone,
			StarCounts:  types.Ratings{},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user application")
		}

		if _, err := userRepo.CreateConnection(ctx, &models.Connection{
			UserApplicationID: app.ID,
			FCMToken:          req.FCMToken,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create connection")
		}

		profile = users.ProfileFromModels(user, app)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}
