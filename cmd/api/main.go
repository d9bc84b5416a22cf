package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"freight-tracker/internal/app"
	"freight-tracker/internal/core/config"
	"freight-tracker/internal/core/httpclient"
	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/core/server"
	trackinghandler "freight-tracker/internal/features/tracking/handler"

	"go.uber.org/zap"
)

const (
	healthCheckTimeout = 15 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// @title Freight Tracker API
// @version 1.0
// @description This API aggregates LTL shipment status from carrier tracking pages.
// @contact.name API Support
// @contact.email support@freight-tracker.dev
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.Int("workers", cfg.Tracker.Workers),
		zap.Duration("adapter_timeout", cfg.Tracker.AdapterTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker, err := app.NewTracker(ctx, cfg, app.Overrides{})
	if err != nil {
		l.Fatal("Failed to build tracker", zap.Error(err))
	}
	defer tracker.Close()

	// Carrier sites being down is not fatal; those shipments come back as errors.
	client := httpclient.NewClient(healthCheckTimeout, httpclient.WithProxy(cfg.Proxy.Settings()))
	tracker.LogCarrierHealth(ctx, client)

	trackingHdl := trackinghandler.NewTrackingHandler(tracker.Orchestrator)

	srv := server.New(cfg)
	trackingHdl.RegisterRoutes(srv.App)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			l.Fatal("Server failed to start", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}
}
