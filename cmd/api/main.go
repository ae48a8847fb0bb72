// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/config"
	"github.com/your-org/tailor-marketplace/internal/domain/cart"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/checkout"
	"github.com/your-org/tailor-marketplace/internal/domain/inventory"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/infrastructure/database/postgres"
	"github.com/your-org/tailor-marketplace/internal/infrastructure/database/redis"
	"github.com/your-org/tailor-marketplace/internal/infrastructure/messaging"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/handlers"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/routes"
	"github.com/your-org/tailor-marketplace/internal/pkg/clock"
	applogger "github.com/your-org/tailor-marketplace/internal/pkg/logger"
	"github.com/your-org/tailor-marketplace/internal/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := applogger.New(cfg)
	logger.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting service")

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialise tracing")
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialise metrics")
	}

	// Connect to database
	db, err := postgres.NewConnection(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), logger)
	if err := migration.RunAutoMigrations(); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		logger.WithError(err).Warn("Index creation failed")
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			logger.WithError(err).Warn("Data seeding failed")
		}
		if err := migration.GetTableInfo(); err != nil {
			logger.WithError(err).Warn("Failed to read table info")
		}
	}

	clk := clock.System{}
	catalogService := catalog.NewService(db.GetDB(), logger)
	sellerService := seller.NewService(db.GetDB(), cfg.PricingLocation())
	cartService := cart.NewService(db.GetDB(), catalogService, sellerService, clk, cfg, logger)
	orderService := order.NewService(db.GetDB(), logger)

	publisher := messaging.NewPublisher(cfg, logger)
	defer publisher.Close()

	checkoutMetrics, err := checkout.NewMetrics()
	if err != nil {
		logger.WithError(err).Fatal("Failed to register checkout metrics")
	}

	orchestrator := checkout.NewOrchestrator(checkout.Dependencies{
		Catalog:   catalogService,
		Sellers:   sellerService,
		Carts:     cartService,
		History:   orderService,
		Committer: checkout.NewGormCommitter(db.GetDB(), logger, cfg.Inventory.LowStockThreshold),
		Publisher: publisher,
		Metrics:   checkoutMetrics,
		Clock:     clk,
		Config:    cfg,
		Logger:    logger,
	})
	idempotency := checkout.NewIdempotencyStore(redisClient.GetClient(), cfg.Pricing.IdempotencyTTL, cfg.Pricing.IdempotencyClaimTTL)

	server := http.NewServer(cfg, logger, http.Options{
		Handlers: routes.Handlers{
			Cart:     handlers.NewCartHandler(cartService, logger),
			Checkout: handlers.NewCheckoutHandler(orchestrator, idempotency, logger),
			Orders:   handlers.NewOrderHandler(orderService, logger),
			Sellers:  handlers.NewSellerHandler(sellerService, logger),
			Catalog:  handlers.NewCatalogHandler(catalogService, inventory.NewService(db.GetDB()), logger),
		},
		Redis: redisClient.GetClient(),
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    redisClient,
		},
		Metrics: metricsHandler,
	})

	logger.Info("All systems operational")

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to flush metrics")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}

	logger.Info("Server shutdown completed")
}
