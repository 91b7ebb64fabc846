package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/notebook"
	"github.com/fyrsmithlabs/coachd/internal/registry"
	"github.com/fyrsmithlabs/coachd/internal/report"
	"github.com/fyrsmithlabs/coachd/internal/retry"
	"github.com/fyrsmithlabs/coachd/internal/server"
	"github.com/fyrsmithlabs/coachd/internal/storage"
	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coachd HTTP daemon",
	Long: `Run the coachd daemon: the HTTP API for sessions and reports, the
partner conversation webhook, and the periodic registry cleanup sweep.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("preparing config dir: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	promRegistry := prometheus.NewRegistry()
	metrics := telemetry.New(promRegistry)

	opts := []storage.FileStoreOption{}
	if cfg.Storage.Bucketed {
		opts = append(opts, storage.WithBuckets())
	}
	store, err := storage.NewFileStore(cfg.Storage.BasePath, opts...)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	sessions := registry.NewSessionStore(store, logger, metrics)
	manager := notebook.NewManager(store, logger, notebook.ManagerConfig{
		AutoSaveDelay: cfg.Session.AutoSaveDelay,
	})
	generator := report.NewGenerator(
		extract.NewExtractor(metrics),
		report.NewCompletionClient(cfg.LLM),
		logger,
		metrics,
	)

	srv, err := server.NewServer(manager, generator, sessions, promRegistry, logger, &server.Config{
		Host:              "0.0.0.0",
		Port:              cfg.Server.HTTPPort,
		ResolveMaxRetries: cfg.Registry.ResolveMaxRetries,
		KeepAlive: retry.KeepAliveConfig{
			KeepAliveMarks: cfg.Session.KeepAliveMarks,
			WarningMarks:   cfg.Session.WarningMarks,
			MaxLength:      cfg.Session.MaxLength,
		},
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic inactivity sweep over the session registry.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Registry.CleanupSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		removed, err := sessions.Cleanup(sweepCtx, cfg.Registry.CleanupAfter)
		if err != nil {
			logger.Error("registry cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			logger.Info("registry cleanup", zap.Int("removed", removed))
		}
	}); err != nil {
		return fmt.Errorf("scheduling cleanup: %w", err)
	}
	sweeper.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("coachd started",
		zap.Int("port", cfg.Server.HTTPPort),
		zap.String("storage", cfg.Storage.BasePath),
		zap.String("cleanup_schedule", cfg.Registry.CleanupSchedule))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	cronCtx := sweeper.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	manager.Close(shutdownCtx)

	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
	}

	return nil
}
