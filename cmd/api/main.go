package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storebot/storefront-backend/api/routes"
	"github.com/storebot/storefront-backend/internal/admingw"
	"github.com/storebot/storefront-backend/internal/cart"
	"github.com/storebot/storefront-backend/internal/catalog"
	"github.com/storebot/storefront-backend/internal/checkout"
	"github.com/storebot/storefront-backend/internal/orders"
	"github.com/storebot/storefront-backend/internal/stock"
	"github.com/storebot/storefront-backend/internal/users"
	"github.com/storebot/storefront-backend/pkg/config"
	"github.com/storebot/storefront-backend/pkg/db"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/metrics"
	"github.com/storebot/storefront-backend/pkg/migrate"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)

	userRepo := users.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	stockRepo := stock.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())

	userService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo, stockRepo, userService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo, stockRepo, dbClient, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(cartRepo, stockRepo, orderRepo, catalogRepo, userService, dbClient, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, stockRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	gateway, err := admingw.NewGateway(orderService, cfg.Admin, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin gateway", err)
		os.Exit(1)
	}

	stats, err := admingw.NewStatsReader(userRepo, orderRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats reader", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	metricsServer := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   orderService,
			Catalog:  catalogService,
			Users:    userService,
			Gateway:  gateway,
			Stats:    stats,
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(context.Background(), "api server shutdown failed", err)
		}
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
