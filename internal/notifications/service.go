package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/fcm"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

// Service persists notifications and delivers the push copies. The row is the
// source of truth; FCM delivery is best effort and never fails the caller.
type Service interface {
	Notify(ctx context.Context, input NotifyInput) (*models.Notification, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userApplicationID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userApplicationID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	sender fcm.Sender
	logg   *logger.Logger
}

// NotifyInput carries one notification plus the optional device token to push
// to.
type NotifyInput struct {
	UserApplicationID uuid.UUID
	Kind              enums.NotificationKind
	Title             string
	Body              string
	OfferID           *uuid.UUID
	FCMToken          *string
	Data              map[string]string
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserApplicationID uuid.UUID
	Limit             int
	Cursor            string
	UnreadOnly        bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, sender fcm.Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push sender required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, sender: sender, logg: logg}, nil
}

func (s *service) Notify(ctx context.Context, input NotifyInput) (*models.Notification, error) {
	if input.UserApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user application id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification kind")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	row := &models.Notification{
		ID:                uuid.New(),
		UserApplicationID: input.UserApplicationID,
		Kind:              input.Kind,
		Title:             input.Title,
		Body:              input.Body,
		OfferID:           input.OfferID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	if input.FCMToken != nil && *input.FCMToken != "" {
		err := s.sender.Send(ctx, *input.FCMToken, fcm.Message{
			Title: input.Title,
			Body:  input.Body,
			Data:  input.Data,
		})
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"notification_id":     row.ID.String(),
				"user_application_id": input.UserApplicationID.String(),
				"error":               err.Error(),
			}), "push delivery failed")
		}
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user application id required")
	}

	repoParams := listNotificationsParams{
		UserApplicationID: params.UserApplicationID,
		Limit:             params.Limit,
		UnreadOnly:        params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		repoParams.Cursor = cursor
	}

	items, next, err := s.repo.List(ctx, repoParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, userApplicationID, notificationID uuid.UUID) error {
	if userApplicationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user application id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	mark, err := s.repo.MarkRead(ctx, userApplicationID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !mark.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userApplicationID uuid.UUID) (int64, error) {
	if userApplicationID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user application id required")
	}

	updated, err := s.repo.MarkAllRead(ctx, userApplicationID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return updated, nil
}
