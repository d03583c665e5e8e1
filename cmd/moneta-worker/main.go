package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/config"
	applog "moneta/internal/log"
	"moneta/internal/storage"
)

// moneta-worker consumes ledger events from the broker and journals them
// into the event_log table for audit.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting moneta-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := func(msg *amqp.TransactionRecorded) error {
		payload, err := msg.ToJSON()
		if err != nil {
			return err
		}
		if err := repo.AppendEvent(ctx, "transaction_recorded", payload, msg.Timestamp); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Ledger event journaled",
			"entry_id", msg.EntryID,
			"wallet", msg.Wallet,
			"origin_id", msg.OriginID,
			"amount_cents", msg.AmountCents)
		return nil
	}

	if err := amqpClient.ConsumeTransactionRecorded(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
