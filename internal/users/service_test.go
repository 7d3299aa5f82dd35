package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/types"
)

type stubProfileRepo struct {
	apps        map[uuid.UUID]*models.UserApplication
	conns       map[uuid.UUID]*models.Connection
	appUpdates  map[string]any
	connUpdates map[string]any
}

func (s *stubProfileRepo) FindApplicationByID(_ context.Context, id uuid.UUID) (*models.UserApplication, error) {
	if app, ok := s.apps[id]; ok {
		return app, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfileRepo) FindApplicationByUserID(_ context.Context, userID uuid.UUID) (*models.UserApplication, error) {
	for _, app := range s.apps {
		if app.UserID == userID {
			return app, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfileRepo) UpdateApplication(_ context.Context, _ uuid.UUID, updates map[string]any) error {
	s.appUpdates = updates
	return nil
}

func (s *stubProfileRepo) FindConnectionByApplicationID(_ context.Context, appID uuid.UUID) (*models.Connection, error) {
	if conn, ok := s.conns[appID]; ok {
		return conn, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfileRepo) UpdateConnection(_ context.Context, _ uuid.UUID, updates map[string]any) error {
	s.connUpdates = updates
	return nil
}

func TestAddRating_RecomputesAverage(t *testing.T) {
	appID := uuid.New()
	repo := &stubProfileRepo{apps: map[uuid.UUID]*models.UserApplication{
		appID: {
			ID:         appID,
			UserID:     uuid.New(),
			Rating:     5,
			StarCounts: types.Ratings{"5": 1},
		},
	}}

	svc, err := NewService(repo)
	require.NoError(t, err)

	profile, err := svc.AddRating(context.Background(), appID, 3)
	require.NoError(t, err)

	assert.Equal(t, 4.0, profile.Rating)
	assert.Equal(t, 1, profile.StarCounts["3"])
	assert.Equal(t, 4.0, repo.appUpdates["rating"])
}

func TestAddRating_RejectsOutOfRangeStars(t *testing.T) {
	svc, err := NewService(&stubProfileRepo{})
	require.NoError(t, err)

	for _, stars := range []int{0, 6, -1} {
		_, err := svc.AddRating(context.Background(), uuid.New(), stars)
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestPatchConnection_OnlyTouchesProvidedFields(t *testing.T) {
	appID := uuid.New()
	oauth := "oauth-token"
	repo := &stubProfileRepo{conns: map[uuid.UUID]*models.Connection{
		appID: {
			ID:                uuid.New(),
			UserApplicationID: appID,
			OAuthToken:        &oauth,
		},
	}}

	svc, err := NewService(repo)
	require.NoError(t, err)

	fcm := "new-fcm-token"
	conn, err := svc.PatchConnection(context.Background(), appID, ConnectionPatch{FCMToken: &fcm})
	require.NoError(t, err)

	require.Len(t, repo.connUpdates, 1)
	assert.Equal(t, "new-fcm-token", repo.connUpdates["fcm_token"])
	require.NotNil(t, conn.OAuthToken)
	assert.Equal(t, "oauth-token", *conn.OAuthToken)
}

func TestPatchConnection_EmptyPatchIsNoop(t *testing.T) {
	appID := uuid.New()
	repo := &stubProfileRepo{conns: map[uuid.UUID]*models.Connection{
		appID: {ID: uuid.New(), UserApplicationID: appID},
	}}

	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.PatchConnection(context.Background(), appID, ConnectionPatch{})
	require.NoError(t, err)
	assert.Nil(t, repo.connUpdates)
}

func TestPatchConnection_ExpiryUpdate(t *testing.T) {
	appID := uuid.New()
	repo := &stubProfileRepo{conns: map[uuid.UUID]*models.Connection{
		appID: {ID: uuid.New(), UserApplicationID: appID},
	}}

	svc, err := NewService(repo)
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour).UTC()
	conn, err := svc.PatchConnection(context.Background(), appID, ConnectionPatch{TokenExpiresAt: &expiry})
	require.NoError(t, err)

	assert.Equal(t, expiry, repo.connUpdates["token_expires_at"])
	require.NotNil(t, conn.TokenExpiresAt)
}
