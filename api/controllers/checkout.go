package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/folio-storefront/api/middleware"
	"github.com/angelmondragon/folio-storefront/api/responses"
	"github.com/angelmondragon/folio-storefront/api/validators"
	checkoutsvc "github.com/angelmondragon/folio-storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/paystack"
)

const (
	settleWait         = 25 * time.Second
	maxWebhookBodySize = 1 << 20
)

type selectCurrencyRequest struct {
	Currency string `json:"currency" validate:"required"`
}

type submitCheckoutRequest struct {
	Email string `json:"email"`
}

// callbackRequest mirrors the response object the payment widget hands to its callback.
type callbackRequest struct {
	Status    string `json:"status" validate:"required"`
	Reference string `json:"reference"`
}

type webhookVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

func CheckoutGet(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		ctx := r.Context()
		view, err := svc.Get(ctx, middleware.CartSessionFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutSelectCurrency switches the currency used for display and payment.
func CheckoutSelectCurrency(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload selectCurrencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		view, err := svc.SelectCurrency(ctx, middleware.CartSessionFromContext(ctx), payload.Currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutSubmit starts a payment attempt and returns the widget configuration.
// Email presence is checked by the orchestrator so the attempt state reflects it.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload submitCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		view, err := svc.Submit(ctx, middleware.CartSessionFromContext(ctx), payload.Email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CheckoutSettle waits briefly for the attempt's outcome and returns the session.
func CheckoutSettle(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), settleWait)
		defer cancel()

		view, err := svc.Settle(ctx, middleware.CartSessionFromContext(ctx), chi.URLParam(r, "reference"))
		if err != nil {
			if ctx.Err() != nil {
				err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment is still pending")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutCallback receives the widget's callback response from the browser.
func CheckoutCallback(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload callbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reference := chi.URLParam(r, "reference")
		if payload.Reference != "" && payload.Reference != reference {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference does not match").
				WithDetails(map[string]any{"field": "reference"}))
			return
		}

		ctx := r.Context()
		view, err := svc.Resolve(ctx, middleware.CartSessionFromContext(ctx), reference, checkoutsvc.Outcome{Status: payload.Status, Reference: reference})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutClose records that the shopper dismissed the payment window.
func CheckoutClose(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		ctx := r.Context()
		view, err := svc.Close(ctx, middleware.CartSessionFromContext(ctx), chi.URLParam(r, "reference"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PaystackWebhook settles attempts from charge.success notifications, including
// payments whose attempt the shopper already closed. Unknown references and
// other events are acknowledged so the provider stops retrying.
func PaystackWebhook(svc checkoutsvc.Service, verifier webhookVerifier, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || verifier == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable"))
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}
		if !verifier.VerifySignature(body, r.Header.Get(paystack.SignatureHeader)) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}
		event, err := paystack.ParseWebhook(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithFields(r.Context(), map[string]any{
			"event":     event.Event,
			"reference": event.Data.Reference,
		})
		if event.Event != paystack.EventChargeSuccess {
			logg.Info(ctx, "paystack webhook ignored")
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		outcome := checkoutsvc.Outcome{Status: event.Data.Status, Reference: event.Data.Reference}
		if _, err := svc.Confirm(ctx, event.Data.Reference, outcome); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				logg.Warn(ctx, "paystack webhook for unknown reference")
				responses.WriteSuccess(w, map[string]string{"status": "ignored"})
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
