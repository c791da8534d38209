package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexshd/queuelaw/internal/config"
	"github.com/alexshd/queuelaw/internal/httpapi"
	"github.com/alexshd/queuelaw/internal/ledger"
	"github.com/alexshd/queuelaw/internal/ledger/postgres"
	"github.com/alexshd/queuelaw/internal/ledger/sqlite"
	"github.com/alexshd/queuelaw/internal/logging"
	"github.com/alexshd/queuelaw/internal/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	store, err := openLedger(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	api := httpapi.New(httpapi.Options{
		Store:       store,
		Logger:      logger,
		Precision:   cfg.Engine.Precision,
		MaxClasses:  cfg.Engine.MaxClasses,
		MaxInFlight: cfg.Server.MaxInFlight,
		ShedHold:    cfg.Server.ShedHold,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("queuelaw listening",
			"addr", cfg.Server.Addr,
			"version", version.Info(),
			"ledger", cfg.Ledger.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// openLedger returns the configured store, or nil for the "none" driver.
func openLedger(ctx context.Context, cfg config.LedgerConfig) (ledger.Store, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		store, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, nil
	case "postgres":
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := postgres.New(pingCtx, cfg.DSN, cfg.MaxOpen, cfg.MaxIdle)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}
