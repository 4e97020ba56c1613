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

	"fooddrive/internal/amqp"
	"fooddrive/internal/auth"
	"fooddrive/internal/cache"
	"fooddrive/internal/config"
	apphttp "fooddrive/internal/http"
	"fooddrive/internal/log"
	"fooddrive/internal/services"
	"fooddrive/internal/storage"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := config.Load()
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentApp, Output: os.Stdout})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.ValidateAuth(); err != nil {
		logger.Error("Admin authentication is not configured", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Donations are still recorded; the worker's sweep picks them up later.
			logger.Warn("AMQP unavailable at startup, events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.NewDonationService(repo, publisher, cfg.DonationGoalLbs, logger.WithComponent(log.ComponentDonation))

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(svc.SearchCache())
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Donations:          svc,
		Auth:               auth.New(cfg.AuthSecret, cfg.AuthIssuer, cfg.SessionTTL),
		Ready:              repo,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SearchCacheStats:   svc.SearchCache().Stats,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting food drive server", "port", cfg.Port, "goal_lbs", cfg.DonationGoalLbs)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
