package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/closurehq/laser-backend/api/responses"
	"github.com/closurehq/laser-backend/api/validators"
	"github.com/closurehq/laser-backend/internal/lookups"
	"github.com/closurehq/laser-backend/pkg/logger"
)

// LookupDealStatuses lists the deal status reference table.
func LookupDealStatuses(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := svc.DealStatuses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statuses)
	}
}

// LookupShipmentTypes lists the parcel categories and their pricing factors.
func LookupShipmentTypes(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := svc.ShipmentTypes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types)
	}
}

type shipmentTypeBody struct {
	Name   string          `json:"name" validate:"required,max=255"`
	Factor decimal.Decimal `json:"factor" validate:"required"`
}

// LookupCreateShipmentType adds a new parcel category.
func LookupCreateShipmentType(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body shipmentTypeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		st, err := svc.CreateShipmentType(r.Context(), lookups.CreateShipmentTypeInput{
			Name:   body.Name,
			Factor: body.Factor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, st)
	}
}

// LookupConstants returns the operator-tunable pricing globals.
func LookupConstants(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Constants(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

type constantsBody struct {
	WeightFactor *decimal.Decimal `json:"weight_factor"`
	MaxWeight    *float64         `json:"max_weight"`
}

// LookupUpdateConstants patches the pricing globals. Absent fields keep
// their current value.
func LookupUpdateConstants(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body constantsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.UpdateConstants(r.Context(), lookups.UpdateConstantsInput{
			WeightFactor: body.WeightFactor,
			MaxWeight:    body.MaxWeight,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// LookupCountries lists the country reference table.
func LookupCountries(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		countries, err := svc.Countries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, countries)
	}
}

// LookupAccountProviders lists the payout provider reference table.
func LookupAccountProviders(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := svc.AccountProviders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, providers)
	}
}

type accountProviderBody struct {
	Name string `json:"name" validate:"required,max=255"`
}

// LookupCreateAccountProvider adds a payout provider.
func LookupCreateAccountProvider(svc lookups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body accountProviderBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		provider, err := svc.CreateAccountProvider(r.Context(), body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, provider)
	}
}
