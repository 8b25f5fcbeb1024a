package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/hledger-clear/internal/api"
	"github.com/eshaffer321/hledger-clear/internal/application/reconcile"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/config"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/logging"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	defaults, err := BuildOptions(cfg)
	if err != nil {
		return err
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Port = flags.Port
	if len(cfg.API.AllowedOrigins) > 0 {
		apiCfg.AllowedOrigins = cfg.API.AllowedOrigins
	}

	orchestrator := reconcile.NewOrchestrator(store, logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile"))
	server := api.NewServer(apiCfg, store, orchestrator, defaults, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
