package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/download"
	"github.com/jonathan/resume-tailor/internal/logging"
	"github.com/jonathan/resume-tailor/internal/services"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// loadSettings resolves the effective config and applies the persistent flags
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}

func serviceOptions(cfg config.Config) services.Options {
	return services.Options{AuthKey: cfg.AuthKey, Timeout: cfg.Timeout()}
}

// newDependencies wires the remote service clients. The tracker is left nil
// when no tracker URL is configured so the submission stage is skipped.
func newDependencies(cfg config.Config, downloads download.Trigger) workflow.Dependencies {
	opts := serviceOptions(cfg)
	deps := workflow.Dependencies{
		Store:        services.NewResumeStore(cfg.ResumeStoreURL, opts),
		Customizer:   services.NewCustomizer(cfg.ResumeStoreURL, opts),
		Renderer:     services.NewRenderer(cfg.ResumeStoreURL, opts),
		CoverLetters: services.NewCoverLetters(cfg.ResumeStoreURL, opts),
		Downloads:    downloads,
	}
	if cfg.TrackerURL != "" {
		deps.Tracker = services.NewTracker(cfg.TrackerURL, opts)
	}
	return deps
}

// openLedger connects to the run ledger when a database URL is configured.
// It returns nil without error when persistence is disabled.
func openLedger(ctx context.Context, cfg config.Config, logger *slog.Logger) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	logger.Info("run ledger enabled")
	return database, nil
}

// recordRuns persists every event published by controller until it is disposed
func recordRuns(ctx context.Context, controller *workflow.Controller, ledger db.Ledger, logger *slog.Logger) (wait func()) {
	events, unsubscribe := controller.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		db.NewRecorder(ledger, logger).Consume(ctx, events)
	}()
	return func() {
		unsubscribe()
		<-done
	}
}
