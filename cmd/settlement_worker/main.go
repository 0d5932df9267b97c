package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/config"
	"github.com/mealvoucher-platform/internal/data/mongo"
	"github.com/mealvoucher-platform/internal/data/postgres"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/logger"
	"github.com/mealvoucher-platform/internal/platform/messaging/consumers"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
	"github.com/mealvoucher-platform/internal/platform/persistence"
	"github.com/mealvoucher-platform/internal/settlement"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("settlement_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Settlement Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
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

	// Initialize repositories
	intentRepo := postgres.NewIntentRepository(log, postgresDB)
	contractRepo := postgres.NewContractRepository(log, postgresDB)
	voucherRepo := postgres.NewVoucherRepository(log, postgresDB)
	transferRepo := postgres.NewTransferRepository(log, postgresDB)
	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())

	// Initialize the signing chain gateway
	gateway, err := chain.NewGateway(appCtx, log, &cfg.Chain)
	if err != nil {
		log.Error("Failed to initialize chain gateway", "error", err)
		os.Exit(1)
	}

	// Websocket client for event subscriptions
	wsClient, err := chain.DialWS(&cfg.Chain)
	if err != nil {
		log.Error("Failed to connect to chain websocket", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka DLQ producer for undecodable chain events
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	// Worker pool shared by all settlement stages
	pool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	cycle := settlement.NewCycle(
		log,
		postgresDB,
		intentRepo,
		contractRepo,
		voucherRepo,
		journalRepo,
		gateway,
		pool,
		cfg.Settlement.VoucherBatchLimit,
	)
	runner := settlement.NewRunner(log, cycle, cfg.Settlement.CycleInterval)

	listener, err := settlement.NewListener(log, wsClient, voucherRepo, transferRepo, dlqProducer)
	if err != nil {
		log.Error("Failed to initialize event listener", "error", err)
		os.Exit(1)
	}

	// Watch every contract that deployed before this process started
	deployed, err := contractRepo.ListDeployed(appCtx)
	if err != nil {
		log.Error("Failed to list deployed contracts", "error", err)
		os.Exit(1)
	}
	for _, c := range deployed {
		listener.Register(appCtx, c.ID, *c.Address)
	}
	log.Info("Registered event subscriptions", "contracts", len(deployed))

	// Register contracts as their deployments settle
	go func() {
		for d := range runner.Deployed() {
			listener.Register(appCtx, d.ContractID, d.Address)
		}
	}()

	// Start the settlement runner
	go runner.Start(appCtx)

	// Nudges from the API wake the runner between ticks. A nudge that cannot
	// be decoded still triggers a cycle; the worker reads its work from the
	// database, not from the message.
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)
	err = kafkaConsumer.Subscribe(appCtx, cfg.Kafka.IntentTopic, cfg.Kafka.ConsumerGroup, func(ctx context.Context, key, value []byte) error {
		var nudge shared.IntentNudge
		if err := json.Unmarshal(value, &nudge); err != nil {
			log.Warn("Undecodable nudge message", "key", string(key), "error", err)
		} else {
			log.Debug("Nudge received", "intent_id", nudge.IntentID, "kind", nudge.Kind)
		}
		runner.Nudge()
		return nil
	})
	if err != nil {
		log.Error("Failed to subscribe to intent topic", "error", err)
		os.Exit(1)
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop the runner and let the in-flight cycle finish on the still-live
	// app context. Canceling appCtx here would abort gateway calls whose
	// transactions may already be in the mempool, recording a false
	// terminal status for work that still lands on chain.
	runner.Stop()
	select {
	case <-runner.Done():
		log.Info("Settlement runner stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Only now cut off everything still holding the app context
	cancelAppCtx()

	listener.CloseAll()
	pool.Release()

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}
	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	gateway.Close()
	wsClient.Close()
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	log.Info("Settlement Worker shutdown completed")
}
