package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benx421/payment-gateway/checkout/internal/config"
	"github.com/benx421/payment-gateway/checkout/internal/db"
	"github.com/benx421/payment-gateway/checkout/internal/handlers"
	"github.com/benx421/payment-gateway/checkout/internal/middleware"
	"github.com/benx421/payment-gateway/checkout/internal/repository"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the checkout HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// loadRuntime loads configuration and opens the database, the common start
// of every subcommand.
func loadRuntime(ctx context.Context) (*config.Config, *slog.Logger, *db.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return nil, nil, nil, err
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, nil, err
	}

	return cfg, logger, database, nil
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, database, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck // process is exiting

	logger.Info("starting checkout api",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"gateway_mode", cfg.Gateway.Mode,
		"db_driver", cfg.Database.Driver,
	)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			return err
		}
	}

	router, err := handlers.NewRouter(database, cfg, logger)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		return err
	}

	go middleware.SweepIdempotencyKeys(ctx,
		repository.NewIdempotencyRepository(database),
		cfg.App.IdempotencyTTL,
		cfg.App.IdempotencySweepInterval,
		logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
