// Package observability provides formatted progress output for the CLI.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tailor/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 20
)

// Printer handles formatted output for the CLI
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// SetVerbose makes PrintEvent also report timer ticks
func (p *Printer) SetVerbose(v bool) {
	p.verbose = v
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintEvent writes one progress line for an event. Ticks are shown only in verbose mode.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(e workflow.Event) {
	prefix := fmt.Sprintf("[%3ds]", e.ElapsedSeconds)
	switch e.Type {
	case workflow.EventStarted:
		fmt.Fprintf(p.out, "%s %s (profile: %s)\n", prefix, e.Message, e.ProfileName)
	case workflow.EventStage:
		fmt.Fprintf(p.out, "%s Step %d/%d: %s\n", prefix, stageNumber(e.Stage), len(workflow.Stages), e.Message)
	case workflow.EventStatus:
		if e.Kind == workflow.KindNonFatalSubmission {
			fmt.Fprintf(p.out, "%s Warning: %s (%s)\n", prefix, e.Message, e.Error)
			return
		}
		fmt.Fprintf(p.out, "%s %s\n", prefix, e.Message)
	case workflow.EventDownload:
		fmt.Fprintf(p.out, "%s %s %s\n", prefix, e.Message, e.Filename)
	case workflow.EventTick:
		if p.verbose {
			fmt.Fprintf(p.out, "%s ... %s\n", prefix, e.Stage)
		}
	case workflow.EventComplete:
		fmt.Fprintf(p.out, "%s %s\n", prefix, e.Message)
	}
}

func stageNumber(s workflow.Stage) int {
	for i, info := range workflow.Stages {
		if info.Stage == s {
			return i + 1
		}
	}
	return 0
}

// Follow prints events until a complete event arrives, the channel closes, or ctx is done
func (p *Printer) Follow(ctx context.Context, events <-chan workflow.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			p.PrintEvent(e)
			if e.Type == workflow.EventComplete {
				return nil
			}
		}
	}
}

// PrintRunSummary outputs the final state of a run
func (p *Printer) PrintRunSummary(run workflow.PipelineRun) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run:      %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Profile:  %s\n", run.ProfileName))
	if run.TargetCompany != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", run.TargetCompany))
	}
	if run.TargetRole != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", run.TargetRole))
	}
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", run.Outcome))
	sb.WriteString(fmt.Sprintf("Elapsed:  %ds\n", run.ElapsedSeconds))

	if run.TrackingError != "" {
		sb.WriteString(fmt.Sprintf("Tracking: not sent (%s)\n", run.TrackingError))
	}
	if run.FailedStage != "" {
		sb.WriteString(fmt.Sprintf("Failed:   %s\n", run.FailedStage))
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", run.FailureReason))
	}

	if len(run.Downloads) > 0 {
		sb.WriteString("\nDownloads:\n")
		for _, name := range run.Downloads {
			sb.WriteString(fmt.Sprintf("  • %s\n", name))
		}
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProfiles outputs the names of stored resume profiles
func (p *Printer) PrintProfiles(names []string) {
	if len(names) == 0 {
		p.printBox("RESUME PROFILES", "No profiles stored")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total profiles: %d\n\n", len(names)))

	count := min(len(names), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s\n", names[i]))
	}
	if len(names) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(names)-maxItemsToShow))
	}

	p.printBox("RESUME PROFILES", strings.TrimSuffix(sb.String(), "\n"))
}
