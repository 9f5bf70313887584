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

	"github.com/sernyl/doselog-api/catalog"
	"github.com/sernyl/doselog-api/catalogloader"
	"github.com/sernyl/doselog-api/config"
	"github.com/sernyl/doselog-api/doselog"
	"github.com/sernyl/doselog-api/logging"
	"github.com/sernyl/doselog-api/scheduler"
	"github.com/sernyl/doselog-api/server"
	"github.com/sernyl/doselog-api/validation"
)

func main() {
	// Load .env if present; environment variables win either way
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize, logging.ParseLevel(cfg.LogLevel))

	// Wire the catalog pipeline: loader -> validator -> container
	container := catalog.NewContainer()
	container.SetServerStartTime(time.Now())

	loader := catalogloader.NewFileLoader(cfg.CatalogDir, validation.NewCatalogValidator())
	sched := scheduler.NewScheduler(container, loader, cfg.CatalogDir)

	if err := sched.Start(); err != nil {
		logging.Error("Failed to start catalog scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	doseStore := doselog.NewStore()

	srv := server.NewServer(cfg, container, doseStore)

	// Run the server in a goroutine so shutdown signals can be handled
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logging.Error("Server failed", "error", err)
		os.Exit(1)
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
