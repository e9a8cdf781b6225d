package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authsvc "github.com/angelmondragon/tillpoint-backend/internal/auth"
	cartsvc "github.com/angelmondragon/tillpoint-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/tillpoint-backend/internal/checkout"
	customersvc "github.com/angelmondragon/tillpoint-backend/internal/customers"
	ordersvc "github.com/angelmondragon/tillpoint-backend/internal/orders"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	productsvc "github.com/angelmondragon/tillpoint-backend/internal/products"
	purchasingsvc "github.com/angelmondragon/tillpoint-backend/internal/purchasing"
	returnsvc "github.com/angelmondragon/tillpoint-backend/internal/returns"
	suppliersvc "github.com/angelmondragon/tillpoint-backend/internal/suppliers"
	tillsvc "github.com/angelmondragon/tillpoint-backend/internal/till"
	pkgAuth "github.com/angelmondragon/tillpoint-backend/pkg/auth"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

// memStore backs the redis-facing middleware with a map so route tests
// exercise idempotency and rate limiting without a server.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, counts: map[string]int64{}}
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = fmt.Sprint(value)
	return nil
}

func (s *memStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memStore) IdempotencyKey(scope, id string) string {
	return "tp:idempotency:" + scope + ":" + id
}

func (s *memStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *memStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.UserInfo, error) {
	return &authsvc.UserInfo{ID: uuid.New(), Name: req.Name, Email: req.Email, Role: req.Role}, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, input productsvc.CreateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id, Name: "stub"}, nil
}

func (stubProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) List(ctx context.Context, search string, limit, offset int) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubCustomerService struct{}

func (stubCustomerService) Create(ctx context.Context, input customersvc.Input) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomerService) Update(ctx context.Context, id uuid.UUID, input customersvc.Input) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomerService) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomerService) List(ctx context.Context, search string, limit, offset int) ([]models.Customer, error) {
	return []models.Customer{}, nil
}

func (stubCustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubSupplierService struct{}

func (stubSupplierService) Create(ctx context.Context, input suppliersvc.Input) (*models.Supplier, error) {
	panic("unimplemented")
}

func (stubSupplierService) Update(ctx context.Context, id uuid.UUID, input suppliersvc.Input) (*models.Supplier, error) {
	panic("unimplemented")
}

func (stubSupplierService) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	panic("unimplemented")
}

func (stubSupplierService) List(ctx context.Context, search string, limit, offset int) ([]models.Supplier, error) {
	return []models.Supplier{}, nil
}

func (stubSupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (stubCartService) SetItemDiscount(ctx context.Context, userID, productID uuid.UUID, discount pricing.Discount) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (stubCartService) SetInvoiceDiscount(ctx context.Context, userID uuid.UUID, discount pricing.Discount) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (stubCartService) SetCustomer(ctx context.Context, userID uuid.UUID, customerID *uuid.UUID) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCartService) Empty(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{Order: models.Order{ID: uuid.New(), UserID: userID}}, nil
}

type stubOrderService struct{}

func (stubOrderService) GetByID(ctx context.Context, id uuid.UUID) (*ordersvc.Detail, error) {
	return &ordersvc.Detail{}, nil
}

func (stubOrderService) List(ctx context.Context, limit, offset int) ([]ordersvc.Detail, error) {
	return []ordersvc.Detail{}, nil
}

type stubReturnService struct{}

func (stubReturnService) Start(ctx context.Context, orderID uuid.UUID) (*ordersvc.Detail, error) {
	return &ordersvc.Detail{}, nil
}

func (stubReturnService) Process(ctx context.Context, userID uuid.UUID, input returnsvc.ProcessInput) (*returnsvc.Result, error) {
	panic("unimplemented")
}

type stubPurchasingService struct{}

func (stubPurchasingService) AddItem(ctx context.Context, userID uuid.UUID, input purchasingsvc.AddItemInput) (*purchasingsvc.CartView, error) {
	panic("unimplemented")
}

func (stubPurchasingService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*purchasingsvc.CartView, error) {
	panic("unimplemented")
}

func (stubPurchasingService) SetItemDiscount(ctx context.Context, userID, productID uuid.UUID, discount pricing.Discount) (*purchasingsvc.CartView, error) {
	panic("unimplemented")
}

func (stubPurchasingService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*purchasingsvc.CartView, error) {
	panic("unimplemented")
}

func (stubPurchasingService) GetCart(ctx context.Context, userID uuid.UUID) (*purchasingsvc.CartView, error) {
	return &purchasingsvc.CartView{}, nil
}

func (stubPurchasingService) EmptyCart(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (stubPurchasingService) Receive(ctx context.Context, userID uuid.UUID, input purchasingsvc.ReceiveInput) (*purchasingsvc.Detail, error) {
	panic("unimplemented")
}

func (stubPurchasingService) GetPurchase(ctx context.Context, id uuid.UUID) (*purchasingsvc.Detail, error) {
	panic("unimplemented")
}

func (stubPurchasingService) ListPurchases(ctx context.Context, limit, offset int) ([]purchasingsvc.Detail, error) {
	return []purchasingsvc.Detail{}, nil
}

type stubTillService struct{}

func (stubTillService) Open(ctx context.Context, userID uuid.UUID, input tillsvc.OpenInput) (*models.Till, error) {
	panic("unimplemented")
}

func (stubTillService) Close(ctx context.Context, userID uuid.UUID, input tillsvc.CloseInput) (*tillsvc.Summary, error) {
	panic("unimplemented")
}

func (stubTillService) Current(ctx context.Context, userID uuid.UUID) (*tillsvc.Summary, error) {
	return &tillsvc.Summary{}, nil
}

func (stubTillService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Till, error) {
	return []models.Till{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "tillpoint",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		newMemStore(),
		metrics.NewEngineMetrics(nil),
		nil,
		Services{
			Auth:       stubAuthService{},
			Products:   stubProductService{},
			Customers:  stubCustomerService{},
			Suppliers:  stubSupplierService{},
			Cart:       stubCartService{},
			Checkout:   stubCheckoutService{},
			Orders:     stubOrderService{},
			Returns:    stubReturnService{},
			Purchasing: stubPurchasingService{},
			Till:       stubTillService{},
		},
	)
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "cashier"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for product list got %d", resp.Code)
	}
}

func TestRegisterRequiresManagerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"name":"Zed","email":"zed@example.com","password":"longenough"}`

	cashier := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	cashier.Header.Set("Content-Type", "application/json")
	cashier.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "cashier"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, cashier)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier register got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	manager.Header.Set("Content-Type", "application/json")
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "manager"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for manager register got %d", resp.Code)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "cashier"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
}

func TestCheckoutReplaysStoredResponse(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, "cashier")

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", key)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send("key-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 for first checkout got %d", first.Code)
	}

	replay := send("key-1")
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected 201 for replayed checkout got %d", replay.Code)
	}
	if replay.Body.String() != first.Body.String() {
		t.Fatalf("expected replay to return the stored response, got %s vs %s", replay.Body.String(), first.Body.String())
	}

	fresh := send("key-2")
	if fresh.Body.String() == first.Body.String() {
		t.Fatalf("expected a new key to settle a new order")
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestLoginRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Name:   "Test User",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
