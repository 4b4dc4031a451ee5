package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/api/middleware"
	"github.com/angelmondragon/folio-storefront/api/responses"
	"github.com/angelmondragon/folio-storefront/api/validators"
	cartsvc "github.com/angelmondragon/folio-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

type cartResponse struct {
	Items  []cartsvc.LineItem `json:"items"`
	Total  decimal.Decimal    `json:"total"`
	Count  int                `json:"count"`
	IsOpen bool               `json:"is_open"`
}

func newCartResponse(snap cartsvc.Snapshot) cartResponse {
	items := snap.Items
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return cartResponse{Items: items, Total: snap.Total, Count: snap.Count(), IsOpen: snap.IsOpen}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartOverlayRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// CartGet returns the cart of the calling browsing session.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snap, err := svc.Read(r.Context(), middleware.CartSessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartAddItem merges a catalog product into the cart. Adding a product that is
// already in the cart increments its quantity.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		ctx := r.Context()
		snap, err := svc.AddProduct(ctx, middleware.CartSessionFromContext(ctx), productID, quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartUpdateItem sets a line's quantity. Anything below one is clamped to one.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		snap, err := svc.UpdateQuantity(ctx, middleware.CartSessionFromContext(ctx), chi.URLParam(r, "itemId"), *payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		ctx := r.Context()
		snap, err := svc.RemoveItem(ctx, middleware.CartSessionFromContext(ctx), chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartSetOverlay opens or closes the cart overlay.
func CartSetOverlay(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var payload cartOverlayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		snap, err := svc.SetOpen(ctx, middleware.CartSessionFromContext(ctx), *payload.Open)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}
