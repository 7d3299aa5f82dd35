package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/internal/offers"
	"github.com/closurehq/laser-backend/pkg/db/models"
)

type testOffersService struct {
	createFn      func(ctx context.Context, input offers.CreateInput) (*models.Offer, error)
	listForUserFn func(ctx context.Context, applicationID uuid.UUID, params offers.ListParams) (*offers.ListResult, error)
	listFn        func(ctx context.Context, params offers.ListParams) (*offers.ListResult, error)
}

func (s *testOffersService) Create(ctx context.Context, input offers.CreateInput) (*models.Offer, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.Offer{}, nil
}

func (s *testOffersService) Get(ctx context.Context, id uuid.UUID) (*offers.OfferDetail, error) {
	return &offers.OfferDetail{}, nil
}

func (s *testOffersService) PartialUpdate(ctx context.Context, id uuid.UUID, input offers.UpdateInput) (*offers.OfferDetail, error) {
	return &offers.OfferDetail{}, nil
}

func (s *testOffersService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *testOffersService) List(ctx context.Context, params offers.ListParams) (*offers.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &offers.ListResult{}, nil
}

func (s *testOffersService) ListForUser(ctx context.Context, applicationID uuid.UUID, params offers.ListParams) (*offers.ListResult, error) {
	if s.listForUserFn != nil {
		return s.listForUserFn(ctx, applicationID, params)
	}
	return &offers.ListResult{}, nil
}

func TestOfferCreateInjectsActor(t *testing.T) {
	shipmentDealID := uuid.New()
	tripDealID := uuid.New()
	applicationID := uuid.New()
	svc := &testOffersService{
		createFn: func(ctx context.Context, input offers.CreateInput) (*models.Offer, error) {
			if input.ShipmentDealID != shipmentDealID || input.TripDealID != tripDealID {
				t.Fatalf("unexpected deal pair %s %s", input.ShipmentDealID, input.TripDealID)
			}
			if input.ActorApplicationID != applicationID {
				t.Fatalf("unexpected actor application %s", input.ActorApplicationID)
			}
			if input.ActorUserID == uuid.Nil {
				t.Fatal("actor user not forwarded")
			}
			return &models.Offer{ID: uuid.New()}, nil
		},
	}

	body := strings.NewReader(`{"shipment_deal_id":"` + shipmentDealID.String() + `","trip_deal_id":"` + tripDealID.String() + `"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/offers", body), &applicationID)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	OfferCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestOfferCreateRejectsMissingDeals(t *testing.T) {
	applicationID := uuid.New()
	svc := &testOffersService{
		createFn: func(ctx context.Context, input offers.CreateInput) (*models.Offer, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(`{}`)), &applicationID)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	OfferCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOfferListMineScopesToApplication(t *testing.T) {
	applicationID := uuid.New()
	svc := &testOffersService{
		listForUserFn: func(ctx context.Context, aid uuid.UUID, params offers.ListParams) (*offers.ListResult, error) {
			if aid != applicationID {
				t.Fatalf("unexpected application %s", aid)
			}
			if params.Status == nil || *params.Status != "pending" {
				t.Fatalf("unexpected status filter %v", params.Status)
			}
			return &offers.ListResult{}, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/offers/mine?status=pending", nil), &applicationID)
	resp := httptest.NewRecorder()
	OfferListMine(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d body %s", resp.Code, resp.Body.String())
	}
}

func TestOfferListRejectsUnknownStatus(t *testing.T) {
	svc := &testOffersService{
		listFn: func(ctx context.Context, params offers.ListParams) (*offers.ListResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers?status=vanished", nil)
	resp := httptest.NewRecorder()
	OfferList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
