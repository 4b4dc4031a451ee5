package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/api/middleware"
	cartsvc "github.com/angelmondragon/folio-storefront/internal/cart"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

type stubProductLoader map[uuid.UUID]*models.Product

func (s stubProductLoader) GetPublished(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s[id]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newCartRouter(t *testing.T) (http.Handler, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	loader := stubProductLoader{id: {ID: id, Name: "Logo pack", Price: decimal.NewFromInt(1500), Image: "/img/logo.png"}}
	svc, err := cartsvc.NewService(cartsvc.NewMemoryState(0), loader)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/api/v1/cart", CartGet(svc, logg))
	r.Post("/api/v1/cart/items", CartAddItem(svc, logg))
	r.Patch("/api/v1/cart/items/{itemId}", CartUpdateItem(svc, logg))
	r.Delete("/api/v1/cart/items/{itemId}", CartRemoveItem(svc, logg))
	r.Put("/api/v1/cart/overlay", CartSetOverlay(svc, logg))
	return r, id
}

func cartRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	return req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestCartAddTwiceIncrementsQuantity(t *testing.T) {
	router, id := newCartRouter(t)
	body := `{"product_id":"` + id.String() + `"}`

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, cartRequest(http.MethodPost, "/api/v1/cart/items", body))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
		}
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodGet, "/api/v1/cart", ""))
	cart := decodeCart(t, resp)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", cart.Items)
	}
	if !cart.Total.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected total 3000 got %s", cart.Total)
	}
	if cart.Count != 2 {
		t.Fatalf("expected count 2 got %d", cart.Count)
	}
}

func TestCartUpdateClampsAndRemove(t *testing.T) {
	router, id := newCartRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"`+id.String()+`","quantity":3}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodPatch, "/api/v1/cart/items/"+id.String(), `{"quantity":0}`))
	cart := decodeCart(t, resp)
	if cart.Items[0].Quantity != 1 {
		t.Fatalf("expected clamp to 1 got %d", cart.Items[0].Quantity)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodDelete, "/api/v1/cart/items/"+id.String(), ""))
	cart = decodeCart(t, resp)
	if len(cart.Items) != 0 || !cart.Total.IsZero() {
		t.Fatalf("expected empty cart got %+v", cart)
	}
}

func TestCartAddRejectsBadInput(t *testing.T) {
	router, _ := newCartRouter(t)
	cases := map[string]struct {
		body   string
		status int
	}{
		"bad uuid":         {`{"product_id":"nope"}`, http.StatusBadRequest},
		"zero quantity":    {`{"product_id":"` + uuid.NewString() + `","quantity":0}`, http.StatusBadRequest},
		"unknown product":  {`{"product_id":"` + uuid.NewString() + `"}`, http.StatusNotFound},
		"unknown field":    {`{"product_id":"x","price":1}`, http.StatusBadRequest},
		"missing required": {`{}`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, cartRequest(http.MethodPost, "/api/v1/cart/items", tc.body))
			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestCartOverlay(t *testing.T) {
	router, _ := newCartRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodPut, "/api/v1/cart/overlay", `{"open":true}`))
	if !decodeCart(t, resp).IsOpen {
		t.Fatalf("expected overlay open")
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodPut, "/api/v1/cart/overlay", `{}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRequiresSession(t *testing.T) {
	router, _ := newCartRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartGetEmptyRendersArray(t *testing.T) {
	router, _ := newCartRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, cartRequest(http.MethodGet, "/api/v1/cart", ""))
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"items":[]`)) {
		t.Fatalf("expected empty items array, got %s", resp.Body.String())
	}
}
