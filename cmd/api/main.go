package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tillpoint-backend/api/routes"
	"github.com/angelmondragon/tillpoint-backend/internal/auth"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/checkout"
	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/orders"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/internal/purchasing"
	"github.com/angelmondragon/tillpoint-backend/internal/returns"
	"github.com/angelmondragon/tillpoint-backend/internal/suppliers"
	"github.com/angelmondragon/tillpoint-backend/internal/till"
	"github.com/angelmondragon/tillpoint-backend/internal/users"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/migrate"
	"github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		closeErr := multierr.Append(dbClient.Close(), redisClient.Close())
		if closeErr != nil {
			logg.Error(context.Background(), "error closing resources", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.NewEngineMetrics(registry)

	svcs, err := buildServices(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			engineMetrics,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			svcs,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (routes.Services, error) {
	conn := dbClient.DB()

	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	supplierRepo := suppliers.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	purchasingRepo := purchasing.NewRepository(conn)
	tillRepo := till.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		return routes.Services{}, err
	}

	customerService, err := customers.NewService(customerRepo)
	if err != nil {
		return routes.Services{}, err
	}

	supplierService, err := suppliers.NewService(supplierRepo)
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cart.NewService(cartRepo, productRepo, customerRepo)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkout.NewService(dbClient, cartRepo, tillRepo, cfg.Checkout, logg)
	if err != nil {
		return routes.Services{}, err
	}

	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		return routes.Services{}, err
	}

	returnService, err := returns.NewService(dbClient, orderRepo, cfg.Returns)
	if err != nil {
		return routes.Services{}, err
	}

	purchasingService, err := purchasing.NewService(purchasingRepo, dbClient, productRepo, supplierRepo)
	if err != nil {
		return routes.Services{}, err
	}

	tillService, err := till.NewService(tillRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:       authService,
		Products:   productService,
		Customers:  customerService,
		Suppliers:  supplierService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Returns:    returnService,
		Purchasing: purchasingService,
		Till:       tillService,
	}, nil
}
