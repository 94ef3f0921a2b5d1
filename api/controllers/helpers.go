package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/api/middleware"
	"github.com/vavipcommerce/vavip-backend/api/validators"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

const (
	maxPage    = 100000
	maxPerPage = 100
)

// actorFromContext pulls the authenticated user out of the request context.
func actorFromContext(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, enums.UserRole(middleware.RoleFromContext(r.Context())), nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"param": name})
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return pagination.Params{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", 0, 1, maxPerPage)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Normalize(page, perPage), nil
}
