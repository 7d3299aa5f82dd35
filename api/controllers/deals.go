package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/closurehq/laser-backend/api/responses"
	"github.com/closurehq/laser-backend/api/validators"
	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
)

// DealGet returns a deal with its status, trip, shipments and transaction.
func DealGet(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deal, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

// DealList returns the deal catalog page by page.
func DealList(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DealShipments lists the shipments attached to a deal.
func DealShipments(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ShipmentsByDeal(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// DealRecentShipments lists shipment deals created in the recent window.
func DealRecentShipments(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RecentShipmentDeals(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DealRecentTrips lists trip deals created in the recent window.
func DealRecentTrips(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RecentTripDeals(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func searchFiltersFromQuery(r *http.Request) (deals.SearchFilters, error) {
	filters := deals.SearchFilters{
		From: strings.TrimSpace(r.URL.Query().Get("from")),
		To:   strings.TrimSpace(r.URL.Query().Get("to")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("min_available_weight")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return deals.SearchFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "min_available_weight must be a non-negative number")
		}
		filters.MinAvailableWeight = value
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("max_full_weight")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return deals.SearchFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "max_full_weight must be a non-negative number")
		}
		filters.MaxFullWeight = value
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
		value, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return deals.SearchFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_from")
		}
		filters.DateFrom = &value
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
		value, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return deals.SearchFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_to")
		}
		filters.DateTo = &value
	}
	return filters, nil
}

// DealSearchTrips finds trip deals that can still carry the requested load.
func DealSearchTrips(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := searchFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SearchTrips(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DealSearchShipments finds shipment deals matching a traveler's route and
// capacity.
func DealSearchShipments(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := searchFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SearchShipments(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type dealStatusBody struct {
	Status string `json:"status" validate:"required"`
}

// DealUpdateStatus moves a deal along its status sequence.
func DealUpdateStatus(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body dealStatusBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := enums.ParseDealStatusCode(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		deal, err := svc.UpdateStatus(r.Context(), id, code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

// DealFinalize merges a shipment deal into a trip deal through its accepted
// offer.
func DealFinalize(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentDealID, err := pathUUID(r, "shipmentDealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tripDealID, err := pathUUID(r, "tripDealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Finalize(r.Context(), deals.FinalizeInput{
			ShipmentDealID:     shipmentDealID,
			TripDealID:         tripDealID,
			ActorUserID:        act.UserID,
			ActorApplicationID: act.ApplicationID,
			ActorRole:          act.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DealDelete removes a deal after detaching its shipments.
func DealDelete(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, deals.ActorInput{
			UserID:        act.UserID,
			ApplicationID: act.ApplicationID,
			Role:          act.Role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DealRemoveShipment detaches a single shipment from a deal.
func DealRemoveShipment(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dealID, err := pathUUID(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID, err := pathUUID(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveShipment(r.Context(), shipmentID, dealID, deals.ActorInput{
			UserID:        act.UserID,
			ApplicationID: act.ApplicationID,
			Role:          act.Role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "detached"})
	}
}
