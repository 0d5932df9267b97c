package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mealvoucher-platform/internal/api_gateway"
	"github.com/mealvoucher-platform/internal/api_gateway/service"
	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/config"
	"github.com/mealvoucher-platform/internal/data/postgres"
	"github.com/mealvoucher-platform/internal/logger"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
	"github.com/mealvoucher-platform/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Read-only chain client for on-chain state queries
	reader, err := chain.NewReader(log, &cfg.Chain)
	if err != nil {
		log.Error("Failed to initialize chain reader", "error", err)
		os.Exit(1)
	}

	// Kafka producer nudging the settlement worker
	nudgeProducer, err := producers.NewIntentNudgeProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize intent nudge producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	contractRepo := postgres.NewContractRepository(log, postgresDB)
	intentRepo := postgres.NewIntentRepository(log, postgresDB)
	voucherRepo := postgres.NewVoucherRepository(log, postgresDB)
	transferRepo := postgres.NewTransferRepository(log, postgresDB)

	// Initialize services
	contractService := service.NewContractService(log, postgresDB, contractRepo, intentRepo, transferRepo, reader, nudgeProducer)
	voucherService := service.NewVoucherService(log, postgresDB, voucherRepo, intentRepo, contractService, nudgeProducer)
	transactionService := service.NewTransactionService(log, intentRepo, nudgeProducer)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, contractService, voucherService, transactionService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = nudgeProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	reader.Close()
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
