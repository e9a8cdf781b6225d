package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tillpoint-backend/api/controllers"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	authsvc "github.com/angelmondragon/tillpoint-backend/internal/auth"
	cartsvc "github.com/angelmondragon/tillpoint-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/tillpoint-backend/internal/checkout"
	customersvc "github.com/angelmondragon/tillpoint-backend/internal/customers"
	ordersvc "github.com/angelmondragon/tillpoint-backend/internal/orders"
	productsvc "github.com/angelmondragon/tillpoint-backend/internal/products"
	purchasingsvc "github.com/angelmondragon/tillpoint-backend/internal/purchasing"
	returnsvc "github.com/angelmondragon/tillpoint-backend/internal/returns"
	suppliersvc "github.com/angelmondragon/tillpoint-backend/internal/suppliers"
	tillsvc "github.com/angelmondragon/tillpoint-backend/internal/till"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

// Services bundles the engines the router exposes.
type Services struct {
	Auth       authsvc.Service
	Products   productsvc.Service
	Customers  customersvc.Service
	Suppliers  suppliersvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     ordersvc.Service
	Returns    returnsvc.Service
	Purchasing purchasingsvc.Service
	Till       tillsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient pkgredis.Store,
	engineMetrics *metrics.EngineMetrics,
	metricsHandler http.Handler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(engineMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole("manager", logg),
		).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Get("/lookup", controllers.ProductByBarcode(svcs.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(svcs.Products, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svcs.Products, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(svcs.Customers, logg))
			r.Post("/", controllers.CustomerCreate(svcs.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerGet(svcs.Customers, logg))
			r.Put("/{customerId}", controllers.CustomerUpdate(svcs.Customers, logg))
			r.Delete("/{customerId}", controllers.CustomerDelete(svcs.Customers, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(svcs.Suppliers, logg))
			r.Post("/", controllers.SupplierCreate(svcs.Suppliers, logg))
			r.Get("/{supplierId}", controllers.SupplierGet(svcs.Suppliers, logg))
			r.Put("/{supplierId}", controllers.SupplierUpdate(svcs.Suppliers, logg))
			r.Delete("/{supplierId}", controllers.SupplierDelete(svcs.Suppliers, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Put("/items/{productId}", controllers.CartUpdateQuantity(svcs.Cart, logg))
			r.Put("/items/{productId}/discount", controllers.CartSetItemDiscount(svcs.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Put("/discount", controllers.CartSetInvoiceDiscount(svcs.Cart, logg))
			r.Put("/customer", controllers.CartSetCustomer(svcs.Cart, logg))
			r.Delete("/", controllers.CartEmpty(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, engineMetrics, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Get("/{orderId}/return", controllers.ReturnStart(svcs.Returns, logg))
		})

		r.Post("/returns", controllers.ReturnProcess(svcs.Returns, engineMetrics, logg))

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchaseList(svcs.Purchasing, logg))
			r.Get("/{purchaseId}", controllers.PurchaseDetail(svcs.Purchasing, logg))
			r.Post("/receive", controllers.PurchaseReceive(svcs.Purchasing, engineMetrics, logg))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.PurchaseCartFetch(svcs.Purchasing, logg))
				r.Post("/items", controllers.PurchaseCartAddItem(svcs.Purchasing, logg))
				r.Put("/items/{productId}", controllers.PurchaseCartUpdateQuantity(svcs.Purchasing, logg))
				r.Put("/items/{productId}/discount", controllers.PurchaseCartSetItemDiscount(svcs.Purchasing, logg))
				r.Delete("/items/{productId}", controllers.PurchaseCartRemoveItem(svcs.Purchasing, logg))
				r.Delete("/", controllers.PurchaseCartEmpty(svcs.Purchasing, logg))
			})
		})

		r.Route("/till", func(r chi.Router) {
			r.Post("/open", controllers.TillOpen(svcs.Till, engineMetrics, logg))
			r.Post("/close", controllers.TillClose(svcs.Till, engineMetrics, logg))
			r.Get("/current", controllers.TillCurrent(svcs.Till, logg))
			r.Get("/history", controllers.TillHistory(svcs.Till, logg))
		})
	})

	return r
}
