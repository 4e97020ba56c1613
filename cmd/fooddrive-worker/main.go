package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fooddrive/internal/amqp"
	"fooddrive/internal/config"
	"fooddrive/internal/log"
	"fooddrive/internal/sheets"
	gsheet "fooddrive/internal/sheets/google"
	"fooddrive/internal/sheets/memory"
	"fooddrive/internal/storage"
	"fooddrive/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentWorker, Output: os.Stdout})
	log.SetDefault(logger)

	logger.Info("Starting fooddrive-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var writer sheets.DonationWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		writer = memory.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring donations in memory only")
	}

	syncWorker := worker.NewSyncWorker(repo, writer, cfg.SyncBatchSize)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.ConsumeDonationCreated(gctx, syncWorker.HandleDonationCreated)
		})
	} else {
		logger.Info("AMQP disabled, relying on the periodic sweep", "interval", cfg.SyncInterval)
	}

	g.Go(func() error {
		return syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	if counts, err := repo.SyncStatusCounts(context.Background()); err == nil {
		logger.Info("Worker shutdown complete", "pending", counts["pending"], "synced", counts["synced"], "errors", counts["error"])
	}
}
