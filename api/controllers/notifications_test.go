package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/api/middleware"
	"github.com/closurehq/laser-backend/internal/notifications"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/logger"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, applicationID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, applicationID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) Notify(ctx context.Context, input notifications.NotifyInput) (*models.Notification, error) {
	return nil, nil
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, applicationID, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, applicationID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, applicationID)
	}
	return 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withActor(r *http.Request, applicationID *uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(r.Context(), uuid.NewString())
	if applicationID != nil {
		ctx = middleware.WithApplicationID(ctx, applicationID.String())
	}
	return r.WithContext(ctx)
}

func TestNotificationMarkReadSuccess(t *testing.T) {
	applicationID := uuid.New()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, aid, nid uuid.UUID) error {
			called = true
			if aid != applicationID {
				t.Fatalf("unexpected application %s", aid)
			}
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil), &applicationID)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", notificationID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	NotificationMarkRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "read" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestNotificationMarkReadMissingApplication(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, aid, nid uuid.UUID) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/read", nil), nil)
	resp := httptest.NewRecorder()
	NotificationMarkRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestNotificationListPassesFilters(t *testing.T) {
	applicationID := uuid.New()
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			if params.UserApplicationID != applicationID {
				t.Fatalf("unexpected application %s", params.UserApplicationID)
			}
			if params.Limit != 25 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if !params.UnreadOnly {
				t.Fatal("expected unread filter")
			}
			return &notifications.ListResult{Cursor: "next"}, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=25&unread_only=true", nil), &applicationID)
	resp := httptest.NewRecorder()
	NotificationList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestNotificationMarkAllReadReportsCount(t *testing.T) {
	applicationID := uuid.New()
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, aid uuid.UUID) (int64, error) {
			if aid != applicationID {
				t.Fatalf("unexpected application %s", aid)
			}
			return 4, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil), &applicationID)
	resp := httptest.NewRecorder()
	NotificationMarkAllRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 4 {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}
