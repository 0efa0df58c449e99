package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/download"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Customize a stored resume for one job description",
	Long: `Runs the full workflow once: fetch base resume -> customize -> submit to tracker ->
render resume PDF -> generate cover letter -> render cover letter PDF.

The job description is read from --job (a file path, or - for stdin). PDFs are written to --out.`,
	RunE: runTailorCmd,
}

var (
	runProfile string
	runJob     string
	runJobLink string
	runOut     string
	runVerbose bool
)

func init() {
	runCommand.Flags().StringVarP(&runProfile, "profile", "p", "", "Name of the stored base resume (required)")
	runCommand.Flags().StringVarP(&runJob, "job", "j", "", "Path to job description text file, or - for stdin (required)")
	runCommand.Flags().StringVar(&runJobLink, "job-link", "", "Link to the job posting, forwarded to the tracking system")
	runCommand.Flags().StringVarP(&runOut, "out", "o", "", "Output directory for generated PDFs (overrides output_dir)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print every event, including timer ticks")

	rootCmd.AddCommand(runCommand)
}

func runTailorCmd(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(runProfile) == "" {
		return fmt.Errorf("--profile is required")
	}
	if runJob == "" {
		return fmt.Errorf("--job is required (file path or - for stdin)")
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = runOut
	}

	jobDescription, err := readJobDescription(runJob, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := workflow.RunRequest{ProfileName: runProfile, JobDescription: jobDescription, JobLink: runJobLink}
	_, err = executeRun(ctx, cfg, req, cmd.OutOrStdout(), runVerbose, newLogger(cfg))
	return err
}

// readJobDescription reads the job text verbatim from path, or from stdin when path is "-"
func readJobDescription(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("job description is empty")
	}
	return string(data), nil
}

// executeRun performs one blocking run, printing progress to out, and returns the
// terminal snapshot. A failed run returns its *workflow.StageError.
func executeRun(ctx context.Context, cfg config.Config, req workflow.RunRequest, out io.Writer, verbose bool, logger *slog.Logger) (workflow.PipelineRun, error) {
	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return workflow.PipelineRun{}, err
	}

	controller := workflow.NewController(
		newDependencies(cfg, download.NewDirTrigger(cfg.OutputDir)),
		workflow.Options{Tick: cfg.Tick(), Logger: logger},
	)
	defer controller.Dispose()

	if ledger != nil {
		defer ledger.Close()
		// Ledger writes finish even when the run is interrupted
		wait := recordRuns(context.WithoutCancel(ctx), controller, ledger, logger)
		defer wait()
	}

	printer := observability.NewPrinter(out)
	printer.SetVerbose(verbose)
	events, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	var (
		run    workflow.PipelineRun
		runErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		run, runErr = controller.Run(ctx, req)
		var stageErr *workflow.StageError
		if runErr != nil && !errors.As(runErr, &stageErr) {
			// Rejected before starting; no complete event will follow
			return runErr
		}
		return nil
	})
	g.Go(func() error {
		return printer.Follow(gctx, events)
	})

	waitErr := g.Wait()
	if run.ID == "" {
		if runErr != nil {
			return run, runErr
		}
		return run, waitErr
	}

	printer.PrintRunSummary(run)
	if runErr != nil {
		return run, runErr
	}
	if run.Outcome != workflow.OutcomeSucceeded {
		return run, fmt.Errorf("run %s did not succeed", run.ID)
	}
	return run, nil
}
