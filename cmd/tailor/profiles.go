package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/services"
)

var profilesCommand = &cobra.Command{
	Use:   "profiles",
	Short: "List the base resumes stored in the resume store",
	RunE:  runProfilesCmd,
}

func init() {
	rootCmd.AddCommand(profilesCommand)
}

func runProfilesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	return listProfiles(cmd.Context(), cfg, cmd.OutOrStdout())
}

func listProfiles(ctx context.Context, cfg config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	names, err := services.NewResumeStore(cfg.ResumeStoreURL, serviceOptions(cfg)).List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	observability.NewPrinter(out).PrintProfiles(names)
	return nil
}
