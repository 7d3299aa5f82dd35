package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/api/responses"
	"github.com/closurehq/laser-backend/internal/pricing"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
)

// PricingQuote computes a shipment price from weight and type query params.
func PricingQuote(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawWeight := strings.TrimSpace(r.URL.Query().Get("weight"))
		weight, err := strconv.ParseFloat(rawWeight, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "weight must be a number"))
			return
		}
		typeID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("type_id")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "type_id must be a valid uuid"))
			return
		}
		quote, err := svc.Quote(r.Context(), weight, typeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
