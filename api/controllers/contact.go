package controllers

import (
	"net/http"

	"github.com/angelmondragon/folio-storefront/api/middleware"
	"github.com/angelmondragon/folio-storefront/api/responses"
	"github.com/angelmondragon/folio-storefront/api/validators"
	"github.com/angelmondragon/folio-storefront/internal/contact"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

// ContactSubmit stores a message from the public contact form.
func ContactSubmit(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}
		var input contact.Submission
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, err := svc.Submit(r.Context(), input, middleware.ClientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":         msg.ID,
			"created_at": msg.CreatedAt,
		})
	}
}

func AdminContactList(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
