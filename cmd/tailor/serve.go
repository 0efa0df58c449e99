package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/download"
	"github.com/jonathan/resume-tailor/internal/server"
	"github.com/jonathan/resume-tailor/internal/services"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for starting and following resume runs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}

	downloads := download.NewMemoryTrigger()
	controller := workflow.NewController(newDependencies(cfg, downloads), workflow.Options{
		Tick:   cfg.Tick(),
		Logger: logger,
	})

	var history server.RunHistory
	if ledger != nil {
		defer ledger.Close()
		history = ledger
		wait := recordRuns(context.WithoutCancel(ctx), controller, ledger, logger)
		defer wait()
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		AuthKey:    cfg.AuthKey,
		Controller: controller,
		Profiles:   services.NewResumeStore(cfg.ResumeStoreURL, serviceOptions(cfg)),
		Downloads:  downloads,
		History:    history,
		Logger:     logger,
	})
	return srv.Run(ctx)
}
