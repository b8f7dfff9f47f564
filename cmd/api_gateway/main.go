package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lead-marketplace/internal/api_gateway"
	"github.com/lead-marketplace/internal/api_gateway/service"
	"github.com/lead-marketplace/internal/config"
	"github.com/lead-marketplace/internal/data/mongo"
	"github.com/lead-marketplace/internal/data/postgres"
	"github.com/lead-marketplace/internal/logger"
	"github.com/lead-marketplace/internal/platform/messaging/producers"
	"github.com/lead-marketplace/internal/platform/metrics"
	"github.com/lead-marketplace/internal/platform/persistence"
	"github.com/lead-marketplace/internal/platform/ratelimit"
	"github.com/lead-marketplace/internal/purchase"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	if cfg.Postgres.MigrationsPath != "" {
		if err := persistence.RunMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
			log.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		log.Info("Database migrations applied", "path", cfg.Postgres.MigrationsPath)
	}

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}
	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.Redis.Prefix, cfg.Purchase.RateLimit, cfg.Purchase.RateWindow)
	}

	// Publishes recharge requests for the wallet_processor
	kafkaProducer, err := producers.NewRechargeRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize recharge request producer", "error", err)
		os.Exit(1)
	}

	buyerRepo := postgres.NewBuyerRepository(log, postgresDB)
	leadRepo := postgres.NewLeadRepository(log, postgresDB)
	pricingRepo := postgres.NewPricingRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())
	if err := auditRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create audit indexes", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewMetricsCollector(log)

	orchestrator := purchase.NewOrchestrator(log, postgresDB, purchase.Repositories{
		Buyers:  buyerRepo,
		Leads:   leadRepo,
		Pricing: pricingRepo,
		Ledger:  ledgerRepo,
		Outbox:  outboxRepo,
	}, cfg.Purchase.Timeout, purchase.WithRecorder(collector))

	var purchaser purchase.Purchaser = orchestrator
	pooled, err := purchase.NewPooledPurchaser(orchestrator, cfg.WorkerPool.Size, 4*cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to create purchase pool, purchasing without it", "error", err)
	} else {
		purchaser = pooled
	}

	services := api_gateway.Services{
		Buyers:  service.NewBuyerService(log, buyerRepo, leadRepo),
		Leads:   service.NewLeadService(log, buyerRepo, leadRepo, purchaser),
		Pricing: service.NewPricingService(log, pricingRepo),
		Wallet:  service.NewWalletService(log, buyerRepo, ledgerRepo, auditRepo, kafkaProducer),
	}

	var metricsCollector *metrics.MetricsCollector
	if cfg.Metrics.Enabled {
		metricsCollector = collector
	}

	server := api_gateway.NewServer(log, cfg, services, limiter, metricsCollector)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop taking requests before the stores they need go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if pooled != nil {
		pooled.Shutdown()
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if redisClient != nil {
		if err = redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", "error", err)
		}
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
