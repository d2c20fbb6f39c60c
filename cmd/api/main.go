package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tastebite/tastebite-backend/api/routes"
	"github.com/tastebite/tastebite-backend/internal/cart"
	"github.com/tastebite/tastebite-backend/internal/catalog"
	"github.com/tastebite/tastebite-backend/internal/checkout"
	"github.com/tastebite/tastebite-backend/internal/identity"
	"github.com/tastebite/tastebite-backend/internal/notifications"
	"github.com/tastebite/tastebite-backend/internal/orders"
	"github.com/tastebite/tastebite-backend/internal/pricing"
	"github.com/tastebite/tastebite-backend/pkg/config"
	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/logger"
	"github.com/tastebite/tastebite-backend/pkg/metrics"
	"github.com/tastebite/tastebite-backend/pkg/migrate"
	pkgredis "github.com/tastebite/tastebite-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	meters := metrics.New(registry)
	sink := notifications.NewLogSink(logg)
	resolver := identity.NewResolver(dbClient.DB())

	engine, err := pricing.NewEngine(cfg.Pricing.DefaultRate())
	if err != nil {
		logg.Error(ctx, "failed to build pricing engine", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), dbClient, sink, meters)
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}
	cartSvc, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, engine, meters)
	if err != nil {
		logg.Error(ctx, "failed to build cart service", err)
		os.Exit(1)
	}
	checkoutSvc, err := checkout.NewService(checkout.NewRepository(dbClient.DB()), dbClient, resolver, meters)
	if err != nil {
		logg.Error(ctx, "failed to build checkout service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, resolver, engine, sink, meters)
	if err != nil {
		logg.Error(ctx, "failed to build orders service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Cart:    cartSvc,
		Catalog: catalogSvc,
		Orders:  ordersSvc,
		Chkout:  checkoutSvc,
		Metrics: registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ctx := logg.WithField(ctx, "addr", server.Addr)
		logg.Info(ctx, "api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "server stopped", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api stopped")
}
