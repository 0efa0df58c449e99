package observability

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/workflow"
)

func TestPrintEvent(t *testing.T) {
	tests := []struct {
		name  string
		event workflow.Event
		want  string
	}{
		{
			name:  "started",
			event: workflow.Event{Type: workflow.EventStarted, Message: workflow.StatusStarting, ProfileName: "jane-smith"},
			want:  "[  0s] Generating customized resume... (profile: jane-smith)",
		},
		{
			name:  "stage",
			event: workflow.Event{Type: workflow.EventStage, Stage: workflow.StageCustomizing, Message: "Customizing resume for job description...", ElapsedSeconds: 2},
			want:  "[  2s] Step 2/6: Customizing resume for job description...",
		},
		{
			name:  "tracking warning",
			event: workflow.Event{Type: workflow.EventStatus, Kind: workflow.KindNonFatalSubmission, Message: workflow.StatusTrackingNotSent, Error: "HTTP 502", ElapsedSeconds: 4},
			want:  "[  4s] Warning: Customized resume generated but not sent to external system (HTTP 502)",
		},
		{
			name:  "download",
			event: workflow.Event{Type: workflow.EventDownload, Message: workflow.StatusDownloadComplete, Filename: "jane-smith.pdf", ElapsedSeconds: 12},
			want:  "[ 12s] Download complete! jane-smith.pdf",
		},
		{
			name:  "complete",
			event: workflow.Event{Type: workflow.EventComplete, Message: workflow.StatusSucceeded, ElapsedSeconds: 20},
			want:  "[ 20s] Resume and Cover Letter Generated!",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintEvent(tt.event)
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestPrintEvent_TicksOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	tick := workflow.Event{Type: workflow.EventTick, Stage: workflow.StageRenderingResume, ElapsedSeconds: 5}

	p.PrintEvent(tick)
	assert.Empty(t, buf.String())

	p.SetVerbose(true)
	p.PrintEvent(tick)
	assert.Contains(t, buf.String(), "rendering_resume")
}

func TestFollow_StopsOnComplete(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ch := make(chan workflow.Event, 3)
	ch <- workflow.Event{Type: workflow.EventStage, Stage: workflow.StageFetchingBase, Message: "Fetching base resume..."}
	ch <- workflow.Event{Type: workflow.EventComplete, Message: workflow.StatusSucceeded}
	ch <- workflow.Event{Type: workflow.EventStage, Message: "never printed"}

	require.NoError(t, p.Follow(context.Background(), ch))
	assert.Contains(t, buf.String(), "Fetching base resume...")
	assert.NotContains(t, buf.String(), "never printed")
}

func TestFollow_ContextCancelled(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Follow(ctx, make(chan workflow.Event))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunSummary(workflow.PipelineRun{
		ID:             "run-1",
		ProfileName:    "jane-smith",
		TargetCompany:  "Acme Corp",
		TargetRole:     "Senior Backend Engineer",
		Outcome:        workflow.OutcomeSucceeded,
		ElapsedSeconds: 21,
		TrackingError:  "HTTP 502",
		Downloads:      []string{"jane-smith.pdf", "jane-smith_cover_letter.pdf"},
	})
	output := buf.String()

	assert.Contains(t, output, "RUN SUMMARY")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "Senior Backend Engineer")
	assert.Contains(t, output, "21s")
	assert.Contains(t, output, "not sent")
	assert.Contains(t, output, "jane-smith_cover_letter.pdf")
	assert.NotContains(t, output, "Failed:")
}

func TestPrintRunSummary_Failed(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary(workflow.PipelineRun{
		Outcome:       workflow.OutcomeFailed,
		FailedStage:   workflow.StageCustomizing,
		FailureReason: "customized resume is missing target company",
	})

	assert.Contains(t, buf.String(), "customizing")
	assert.Contains(t, buf.String(), "missing target company")
	assert.NotContains(t, buf.String(), "Downloads:")
}

func TestPrintProfiles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("profile-%02d", i)
	}
	p.PrintProfiles(names)

	output := buf.String()
	assert.Contains(t, output, "Total profiles: 25")
	assert.Contains(t, output, "profile-00")
	assert.NotContains(t, output, "profile-24")
	assert.Contains(t, output, "... and 5 more")
}

func TestPrintProfiles_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfiles(nil)
	assert.Contains(t, buf.String(), "No profiles stored")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("TITLE", strings.Repeat("x", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
	assert.Contains(t, buf.String(), "...")
}
