package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/folio-storefront/internal/products"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
)

type stubProducts struct {
	created products.CreateInput
	deleted uuid.UUID
}

func (s *stubProducts) ListPublished(context.Context, pagination.Params) (*products.ProductList, error) {
	return &products.ProductList{Items: []models.Product{{Name: "Logo pack"}}}, nil
}

func (s *stubProducts) GetPublished(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProducts) List(context.Context, pagination.Params) (*products.ProductList, error) {
	return &products.ProductList{}, nil
}

func (s *stubProducts) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) Create(_ context.Context, input products.CreateInput) (*models.Product, error) {
	s.created = input
	return &models.Product{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubProducts) Update(_ context.Context, id uuid.UUID, _ products.UpdateInput) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func productRouter(svc products.Service) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/api/v1/products", ProductList(svc, logg))
	r.Get("/api/v1/products/{productId}", ProductDetail(svc, logg))
	r.Post("/api/admin/v1/products", AdminProductCreate(svc, logg))
	r.Delete("/api/admin/v1/products/{productId}", AdminProductDelete(svc, logg))
	return r
}

func TestProductRoutes(t *testing.T) {
	svc := &stubProducts{}
	router := productRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("detail: expected 400 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("detail: expected 404 got %d", resp.Code)
	}

	body := `{"name":"Logo pack","price":"1500","image":"/img/logo.png","features":["SVG"]}`
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", bytes.NewBufferString(body)))
	if resp.Code != http.StatusCreated || svc.created.Name != "Logo pack" {
		t.Fatalf("create: expected 201 got %d", resp.Code)
	}

	id := uuid.New()
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/admin/v1/products/"+id.String(), nil))
	if resp.Code != http.StatusNoContent || svc.deleted != id {
		t.Fatalf("delete: expected 204 got %d", resp.Code)
	}
}
