package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/users"
	"github.com/closurehq/laser-backend/pkg/config"
	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/security"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterRepo struct {
	byEmail map[string]*models.User
	byLogin map[string]*models.User

	createdUser *models.User
	createdApp  *models.UserApplication
	createdConn *models.Connection
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{
		byEmail: map[string]*models.User{},
		byLogin: map[string]*models.User{},
	}
}

func (s *stubRegisterRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterRepo) FindByLogin(_ context.Context, login string) (*models.User, error) {
	if u, ok := s.byLogin[login]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.createdUser = user
	return user, nil
}

func (s *stubRegisterRepo) CreateApplication(_ context.Context, app *models.UserApplication) (*models.UserApplication, error) {
	app.ID = uuid.New()
	s.createdApp = app
	return app, nil
}

func (s *stubRegisterRepo) CreateConnection(_ context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.ID = uuid.New()
	s.createdConn = conn
	return conn, nil
}

func newRegisterSetup(t *testing.T) (RegisterService, *stubRegisterRepo) {
	t.Helper()
	repo := newStubRegisterRepo()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(*gorm.DB) registerUserRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc, repo
}

func sampleRegisterRequest() RegisterRequest {
	fcm := "device-token"
	return RegisterRequest{
		Login:     "Traveler-42",
		Email:     "Traveler@Example.com",
		Password:  "Secret123!",
		FirstName: "Lina",
		LastName:  "Odeh",
		FCMToken:  &fcm,
	}
}

func TestRegister_CreatesUserApplicationAndConnection(t *testing.T) {
	svc, repo := newRegisterSetup(t)

	profile, err := svc.Register(context.Background(), sampleRegisterRequest())
	require.NoError(t, err)

	require.NotNil(t, repo.createdUser)
	assert.Equal(t, "traveler-42", repo.createdUser.Login)
	assert.Equal(t, "traveler@example.com", repo.createdUser.Email)
	assert.True(t, repo.createdUser.Activated)

	valid, err := security.VerifyPassword("Secret123!", repo.createdUser.PasswordHash)
	require.NoError(t, err)
	assert.True(t, valid)

	require.NotNil(t, repo.createdApp)
	assert.Equal(t, repo.createdUser.ID, repo.createdApp.UserID)

	require.NotNil(t, repo.createdConn)
	assert.Equal(t, repo.createdApp.ID, repo.createdConn.UserApplicationID)
	require.NotNil(t, repo.createdConn.FCMToken)
	assert.Equal(t, "device-token", *repo.createdConn.FCMToken)

	require.NotNil(t, profile)
	assert.Equal(t, repo.createdApp.ID, profile.ApplicationID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, repo := newRegisterSetup(t)
	repo.byEmail["traveler@example.com"] = &models.User{ID: uuid.New()}

	_, err := svc.Register(context.Background(), sampleRegisterRequest())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.Nil(t, repo.createdUser)
}

func TestRegister_DuplicateLogin(t *testing.T) {
	svc, repo := newRegisterSetup(t)
	repo.byLogin["traveler-42"] = &models.User{ID: uuid.New()}

	_, err := svc.Register(context.Background(), sampleRegisterRequest())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}
