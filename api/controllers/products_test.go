package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	productsvc "github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func TestProductDelete(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()

	t.Run("invalid product id", func(t *testing.T) {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("productId", "not-a-uuid")
		ctx := context.WithValue(context.Background(), chi.RouteCtxKey, routeCtx)
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/invalid", nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		ProductDelete(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("productId", productID.String())
		ctx := context.WithValue(context.Background(), chi.RouteCtxKey, routeCtx)
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+productID.String(), nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		stub := &stubProductService{}
		ProductDelete(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d", rec.Code)
		}
		if !stub.deleteCalled {
			t.Fatalf("expected Delete to be invoked")
		}
	})
}

func TestProductCreateValidation(t *testing.T) {
	logg := testLogger()

	t.Run("missing name", func(t *testing.T) {
		body := strings.NewReader(`{"price": "10.00", "cost_price": "4.00"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		ProductCreate(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing name, got %d", rec.Code)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		body := strings.NewReader(`{"name": "Beans", "price": "10.00", "cost_price": "4.00", "bogus": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		ProductCreate(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		body := strings.NewReader(`{"name": "Beans", "price": "10.00", "cost_price": "4.00", "stock": 5}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		stub := &stubProductService{}
		ProductCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 on success, got %d", rec.Code)
		}
		if stub.createInput.Name != "Beans" {
			t.Fatalf("expected create input to carry name, got %q", stub.createInput.Name)
		}
	})
}

type stubProductService struct {
	deleteCalled bool
	createInput  productsvc.CreateInput
}

func (s *stubProductService) Create(ctx context.Context, input productsvc.CreateInput) (*models.Product, error) {
	s.createInput = input
	return &models.Product{ID: uuid.New(), Name: input.Name, Price: input.Price, CostPrice: input.CostPrice, Stock: input.Stock}, nil
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (s *stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id, Name: "stub", Price: decimal.New(10, 0), CostPrice: decimal.New(4, 0)}, nil
}

func (s *stubProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	panic("unimplemented")
}

func (s *stubProductService) List(ctx context.Context, search string, limit, offset int) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleteCalled = true
	return nil
}
