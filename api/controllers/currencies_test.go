package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

func TestCurrencyList(t *testing.T) {
	resp := httptest.NewRecorder()
	CurrencyList(currency.MustDefault(), logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/currencies", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Base       string           `json:"base"`
			Currencies []currency.Entry `json:"currencies"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Base != "NGN" {
		t.Fatalf("expected NGN base got %q", envelope.Data.Base)
	}
	if len(envelope.Data.Currencies) != 5 {
		t.Fatalf("expected 5 currencies got %d", len(envelope.Data.Currencies))
	}
}

func TestCurrencyConvert(t *testing.T) {
	handler := CurrencyConvert(currency.MustDefault(), logger.Nop())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/currencies/convert?amount=3000&currency=GHS", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data conversionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Converted.String() != "30" || envelope.Data.Formatted != "GH₵30.00" {
		t.Fatalf("unexpected conversion %+v", envelope.Data)
	}

	for _, query := range []string{"amount=10&currency=EUR", "amount=10&currency=usd", "amount=-1&currency=USD", "currency=USD"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/currencies/convert?"+query, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", query, resp.Code)
		}
	}
}
