// Command recalculate rebuilds the dashboard aggregates from every stored
// donation and prints the resulting figures as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fooddrive/internal/config"
	"fooddrive/internal/log"
	"fooddrive/internal/services"
	"fooddrive/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	dbPath := flag.String("db", cfg.SQLiteDBPath, "path to the SQLite database")
	timeout := flag.Duration("timeout", time.Minute, "maximum time to spend recalculating")
	flag.Parse()

	logger := log.New(log.Config{Component: log.ComponentStorage, Output: os.Stderr})

	repo, err := storage.NewSQLiteRepository(*dbPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", *dbPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := services.NewDonationService(repo, nil, cfg.DonationGoalLbs, logger)
	stats, err := svc.Recalculate(ctx)
	if err != nil {
		logger.Error("Recalculation failed", log.FieldError, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		logger.Error("Failed to write stats", log.FieldError, err)
		os.Exit(1)
	}
}
