package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulseflow/pulseflow/internal/config"
	"github.com/pulseflow/pulseflow/internal/events"
	"github.com/pulseflow/pulseflow/internal/server"
	"github.com/pulseflow/pulseflow/internal/store/postgres"
	pulsesync "github.com/pulseflow/pulseflow/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the PulseFlow server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't build a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		publisher, err := buildPublisher(cfg, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()

		pulseServer := server.NewPulseServer(store, publisher)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: pulseServer.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := buildSyncScheduler(cfg, store, logger)
		if scheduler != nil {
			scheduler.Start()
		}

		logger.Info("pulseflow server started", "http_addr", cfg.HTTPAddr)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		logger.Info("shutting down")

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

// buildPublisher returns a NATS publisher when a broker is configured,
// and a no-op publisher otherwise.
func buildPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("events disabled (PULSE_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	logger.Info("events enabled", "nats_url", cfg.NATSURL)
	return pub, nil
}

// buildSyncScheduler wires up the configured snapshot destinations.
// Returns nil when syncing is disabled or no destination is usable.
func buildSyncScheduler(cfg *config.Config, store *postgres.PostgresStore, logger *slog.Logger) *pulsesync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []pulsesync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := pulsesync.NewS3Destination(context.Background(), pulsesync.S3Options{
			Bucket:   cfg.SyncS3Bucket,
			Key:      cfg.SyncS3Key,
			Region:   cfg.SyncS3Region,
			Endpoint: cfg.SyncS3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, pulsesync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
	}
	if len(dests) == 0 {
		return nil
	}

	for _, d := range dests {
		logger.Info("sync destination enabled", "destination", d.Name())
	}
	logger.Info("sync scheduler starting", "interval", cfg.SyncInterval)
	return pulsesync.NewScheduler(store, dests, cfg.SyncInterval, logger)
}
