// Package main is the entry point for the item catalog server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/config"
	"github.com/vyrodovalexey/item-catalog/internal/handler"
	"github.com/vyrodovalexey/item-catalog/internal/server"
	"github.com/vyrodovalexey/item-catalog/internal/service"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "item-catalog: loading configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "item-catalog: initializing logger: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	_ = logger.Sync()

	if err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

// run serves the catalog until ctx is canceled, then shuts down within the
// configured timeout.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.Int("probe_port", cfg.ProbePort),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.Strings("cors_origins", cfg.CORSOrigins),
	)

	itemStore, err := store.Open(cfg.StorageDriver, cfg.StorageDSN)
	if err != nil {
		return err
	}
	defer closeStore(itemStore, logger)

	catalog := service.NewCatalogService(itemStore, logger.Named("catalog"))
	srv := server.New(cfg, logger, catalog, readinessPinger(itemStore))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-serverErr; err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// readinessPinger returns the store as a readiness check when it can be pinged.
func readinessPinger(s store.Store) handler.Pinger {
	if p, ok := s.(store.Pinger); ok {
		return p
	}
	return nil
}

func closeStore(s store.Store, logger *zap.Logger) {
	c, ok := s.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close item store", zap.Error(err))
	}
}
