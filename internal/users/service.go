package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/types"
)

// Service defines profile-level operations on marketplace users.
type Service interface {
	Profile(ctx context.Context, applicationID uuid.UUID) (*ProfileDTO, error)
	ProfileByUser(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	AddRating(ctx context.Context, applicationID uuid.UUID, stars int) (*ProfileDTO, error)
	PatchConnection(ctx context.Context, applicationID uuid.UUID, patch ConnectionPatch) (*models.Connection, error)
}

type profileRepository interface {
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*models.UserApplication, error)
	FindApplicationByUserID(ctx context.Context, userID uuid.UUID) (*models.UserApplication, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindConnectionByApplicationID(ctx context.Context, appID uuid.UUID) (*models.Connection, error)
	UpdateConnection(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type service struct {
	repo profileRepository
}

// NewService wires the users service dependencies.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Profile(ctx context.Context, applicationID uuid.UUID) (*ProfileDTO, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return ProfileFromModels(app.User, app), nil
}

func (s *service) ProfileByUser(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	app, err := s.repo.FindApplicationByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return ProfileFromModels(app.User, app), nil
}

// AddRating records one star vote and recomputes the weighted average from
// the per-star counters.
func (s *service) AddRating(ctx context.Context, applicationID uuid.UUID, stars int) (*ProfileDTO, error) {
	if stars < 1 || stars > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stars must be between 1 and 5")
	}

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	counts := app.StarCounts
	if counts == nil {
		counts = types.Ratings{}
	}
	counts[strconv.Itoa(stars)]++

	total := 0
	weighted := 0
	for star := 1; star <= 5; star++ {
		n := counts[strconv.Itoa(star)]
		total += n
		weighted += star * n
	}
	rating := 0.0
	if total > 0 {
		rating = float64(weighted) / float64(total)
	}

	err = s.repo.UpdateApplication(ctx, app.ID, map[string]any{
		"star_counts": counts,
		"rating":      rating,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rating")
	}

	app.StarCounts = counts
	app.Rating = rating
	return ProfileFromModels(app.User, app), nil
}

// PatchConnection updates only the fields the caller sent. A device
// re-install must be able to swap the FCM token without clobbering the OAuth
// tokens, and vice versa.
func (s *service) PatchConnection(ctx context.Context, applicationID uuid.UUID, patch ConnectionPatch) (*models.Connection, error) {
	if applicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	conn, err := s.repo.FindConnectionByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "connection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load connection")
	}

	updates := map[string]any{}
	if patch.FCMToken != nil {
		updates["fcm_token"] = *patch.FCMToken
		conn.FCMToken = patch.FCMToken
	}
	if patch.OAuthToken != nil {
		updates["oauth_token"] = *patch.OAuthToken
		conn.OAuthToken = patch.OAuthToken
	}
	if patch.LocalToken != nil {
		updates["local_token"] = *patch.LocalToken
		conn.LocalToken = patch.LocalToken
	}
	if patch.LocalRefreshToken != nil {
		updates["local_refresh_token"] = *patch.LocalRefreshToken
		conn.LocalRefreshToken = patch.LocalRefreshToken
	}
	if patch.TokenExpiresAt != nil {
		updates["token_expires_at"] = *patch.TokenExpiresAt
		conn.TokenExpiresAt = patch.TokenExpiresAt
	}

	if len(updates) == 0 {
		return conn, nil
	}

	if err := s.repo.UpdateConnection(ctx, conn.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update connection")
	}
	return conn, nil
}

func (s *service) loadApplication(ctx context.Context, applicationID uuid.UUID) (*models.UserApplication, error) {
	if applicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}
	app, err := s.repo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return app, nil
}
