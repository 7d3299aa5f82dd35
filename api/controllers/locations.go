package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/closurehq/laser-backend/api/responses"
	"github.com/closurehq/laser-backend/api/validators"
	"github.com/closurehq/laser-backend/internal/locations"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
)

var locationSearchFields = map[string]struct{}{
	"country": {},
	"city":    {},
	"airport": {},
}

// LocationRefresh pulls the airport catalog from the upstream provider.
func LocationRefresh(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LocationGet fetches a single catalog entry by id.
func LocationGet(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, location)
	}
}

// LocationList returns catalog entries with the staleness of the last refresh.
func LocationList(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("X-Catalog-Age", svc.Staleness().Round(time.Second).String())
		responses.WriteSuccess(w, result)
	}
}

// LocationSearch filters the catalog by a single field.
func LocationSearch(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		field := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("field")))
		value := strings.TrimSpace(r.URL.Query().Get("value"))
		if _, ok := locationSearchFields[field]; !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "field must be one of country, city, airport"))
			return
		}
		if value == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "value is required"))
			return
		}
		page, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Search(r.Context(), field, value, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type locationCreateBody struct {
	Country string  `json:"country" validate:"required,max=255"`
	City    string  `json:"city" validate:"required,max=255"`
	Airport string  `json:"airport" validate:"required,max=255"`
	Details *string `json:"details" validate:"omitempty,max=1024"`
}

// LocationCreate adds a catalog entry by hand.
func LocationCreate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body locationCreateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.Create(r.Context(), locations.CreateInput{
			Country: body.Country,
			City:    body.City,
			Airport: body.Airport,
			Details: body.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, location)
	}
}

// LocationDelete removes a catalog entry.
func LocationDelete(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
