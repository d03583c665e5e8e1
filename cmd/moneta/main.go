package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"moneta/internal/amqp"
	"moneta/internal/config"
	apphttp "moneta/internal/http"
	applog "moneta/internal/log"
	"moneta/internal/middleware/trace"
	"moneta/internal/services"
	"moneta/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting moneta")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it the ledger still works, events are
	// just not published.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - ledger events will not be published")
	}

	walletService := services.NewWalletService(repo, amqpClient)
	scheduler := services.NewScheduler(walletService, repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Restore(ctx); err != nil {
		logger.Error("Failed to restore recurring templates", "error", err)
		os.Exit(1)
	}
	logger.Info("Recurring templates restored", "count", len(scheduler.List()))

	srv := apphttp.NewServer(":"+cfg.Port, walletService, scheduler, cfg.DefaultCurrency)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB
	srv.Handler = trace.NewMiddleware().Handler(applog.Middleware(logger)(srv.Handler))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		schedLogger := logger.WithComponent(applog.ComponentScheduler)

		// Catch up anything that became due while the process was down.
		if count, err := scheduler.ProcessDue(gctx, time.Now()); err != nil {
			schedLogger.Error("Initial processing failed", "created", count, "error", err)
		} else {
			schedLogger.Info("Initial processing complete", "created", count)
		}

		ticker := time.NewTicker(cfg.ProcessInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				count, err := scheduler.ProcessDue(gctx, now)
				if err != nil {
					schedLogger.Error("Periodic processing failed", "created", count, "error", err)
				} else if count > 0 {
					schedLogger.Info("Periodic processing complete", "created", count)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
