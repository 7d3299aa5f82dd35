package notifications

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/fcm"
	"github.com/closurehq/laser-backend/pkg/logger"
	paginationpkg "github.com/closurehq/laser-backend/pkg/pagination"
)

type fakeRepository struct {
	created    []*models.Notification
	items      []models.Notification
	cursor     *paginationpkg.Cursor
	markResult notificationMarkResult
	markedAll  int64
	err        error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeRepository) ExistsForOffer(ctx context.Context, kind enums.NotificationKind, offerID uuid.UUID) (bool, error) {
	return false, f.err
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.items, f.cursor, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userApplicationID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.err != nil {
		return notificationMarkResult{}, f.err
	}
	return f.markResult, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userApplicationID uuid.UUID, now time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.markedAll, nil
}

func (f *fakeRepository) DeleteOlderThan(ctx context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	kept := f.items[:0]
	var deleted int64
	for _, row := range f.items {
		if row.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	f.items = kept
	return deleted, nil
}

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) Send(_ context.Context, token string, _ fcm.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, token)
	return nil
}

func newServiceWith(t *testing.T, repo Repository, sender fcm.Sender) Service {
	t.Helper()
	svc, err := NewService(repo, sender, logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestNotify_PersistsRowAndPushes(t *testing.T) {
	repo := &fakeRepository{}
	sender := &stubSender{}
	svc := newServiceWith(t, repo, sender)

	token := "device-token"
	offerID := uuid.New()
	row, err := svc.Notify(context.Background(), NotifyInput{
		UserApplicationID: uuid.New(),
		Kind:              enums.NotificationKindOfferReceived,
		Title:             "New offer",
		Body:              "You received an offer",
		OfferID:           &offerID,
		FCMToken:          &token,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, row.ID, repo.created[0].ID)
	assert.Equal(t, []string{"device-token"}, sender.sent)
}

func TestNotify_PushFailureDoesNotPropagate(t *testing.T) {
	repo := &fakeRepository{}
	sender := &stubSender{err: errors.New("fcm unavailable")}
	svc := newServiceWith(t, repo, sender)

	token := "device-token"
	_, err := svc.Notify(context.Background(), NotifyInput{
		UserApplicationID: uuid.New(),
		Kind:              enums.NotificationKindOfferReceived,
		Title:             "New offer",
		FCMToken:          &token,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
}

func TestNotify_SkipsPushWithoutToken(t *testing.T) {
	repo := &fakeRepository{}
	sender := &stubSender{}
	svc := newServiceWith(t, repo, sender)

	_, err := svc.Notify(context.Background(), NotifyInput{
		UserApplicationID: uuid.New(),
		Kind:              enums.NotificationKindOfferAccepted,
		Title:             "Offer accepted",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Empty(t, sender.sent)
}

func TestList_ReturnsCursor(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepository{
		items:  []models.Notification{{ID: uuid.New(), Title: "one"}},
		cursor: &paginationpkg.Cursor{CreatedAt: now, ID: uuid.New()},
	}
	svc := newServiceWith(t, repo, &stubSender{})

	result, err := svc.List(context.Background(), ListParams{UserApplicationID: uuid.New(), Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.NotEmpty(t, result.Cursor)
}

func TestList_InvalidCursor(t *testing.T) {
	svc := newServiceWith(t, &fakeRepository{}, &stubSender{})

	_, err := svc.List(context.Background(), ListParams{UserApplicationID: uuid.New(), Cursor: "not-a-cursor"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestMarkRead_NotFound(t *testing.T) {
	repo := &fakeRepository{markResult: notificationMarkResult{Found: false}}
	svc := newServiceWith(t, repo, &stubSender{})

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestMarkRead_AlreadyRead(t *testing.T) {
	repo := &fakeRepository{markResult: notificationMarkResult{Found: true, Updated: false}}
	svc := newServiceWith(t, repo, &stubSender{})

	require.NoError(t, svc.MarkRead(context.Background(), uuid.New(), uuid.New()))
}

func TestMarkAllRead(t *testing.T) {
	repo := &fakeRepository{markedAll: 3}
	svc := newServiceWith(t, repo, &stubSender{})

	updated, err := svc.MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
}
