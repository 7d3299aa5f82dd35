package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/api/middleware"
	"github.com/closurehq/laser-backend/api/validators"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/pagination"
)

const maxPageLimit = 100

type actor struct {
	UserID        uuid.UUID
	ApplicationID *uuid.UUID
	Role          enums.UserRole
}

func actorFromRequest(r *http.Request) (actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	out := actor{UserID: userID, Role: enums.UserRole(middleware.RoleFromContext(r.Context()))}
	if app := middleware.ApplicationIDFromContext(r.Context()); app != "" {
		appID, err := uuid.Parse(app)
		if err != nil {
			return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid application id")
		}
		out.ApplicationID = &appID
	}
	return out, nil
}

// applicationFromRequest requires the caller to act through an application
// profile and returns its id.
func applicationFromRequest(r *http.Request) (uuid.UUID, error) {
	act, err := actorFromRequest(r)
	if err != nil {
		return uuid.Nil, err
	}
	if act.ApplicationID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "application profile required")
	}
	return *act.ApplicationID, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxPageLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
