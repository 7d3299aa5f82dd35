package middleware

import (
	"net/http"

	"github.com/closurehq/laser-backend/api/responses"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
)

// RequireApplication rejects callers whose token carries no application
// profile. Marketplace operations act on behalf of a profile, not a bare
// account.
func RequireApplication(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ApplicationIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "application profile required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
