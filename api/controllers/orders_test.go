package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/internal/orders"
	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
)

type stubOrders struct {
	order  *models.Order
	list   *orders.OrderList
	params pagination.Params
}

func (s *stubOrders) Record(context.Context, orders.PaidOrder) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrders) FindByReference(_ context.Context, reference string) (*models.Order, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if s.order == nil || s.order.Reference != reference {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrders) List(_ context.Context, params pagination.Params) (*orders.OrderList, error) {
	s.params = params
	return s.list, nil
}

func TestOrderConfirmation(t *testing.T) {
	svc := &stubOrders{order: &models.Order{
		Reference:      "ref_42",
		Email:          "ada@example.com",
		Currency:       enums.CurrencyUSD,
		ConvertedTotal: decimal.RequireFromString("1234.5"),
		Status:         enums.OrderStatusPaid,
		Items:          []models.OrderItem{{ProductID: "p1", Name: "Logo pack", Price: decimal.NewFromInt(1500), Quantity: 1}},
		PaidAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	handler := OrderConfirmation(svc, currency.MustDefault(), logger.Nop())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders/confirmation?ref=ref_42", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "ada@example.com") {
		t.Fatalf("confirmation must not expose the email")
	}
	var envelope struct {
		Data confirmationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.FormattedTotal != "$1,234.50" {
		t.Fatalf("unexpected formatted total %q", envelope.Data.FormattedTotal)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders/confirmation?ref=ref_7", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders/confirmation", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderListPagination(t *testing.T) {
	svc := &stubOrders{list: &orders.OrderList{Items: []models.Order{}}}
	handler := AdminOrderList(svc, logger.Nop())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=10&cursor=abc", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 10 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=500", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
