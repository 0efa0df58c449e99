package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/logging"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// fakeLedger records calls as readable strings
type fakeLedger struct {
	calls       []string
	completions []RunCompletion
	failCreate  bool
}

func (f *fakeLedger) CreateRun(_ context.Context, runID uuid.UUID, profileName, jobURL string) error {
	f.calls = append(f.calls, fmt.Sprintf("create %s %s", profileName, jobURL))
	if f.failCreate {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeLedger) StartStep(_ context.Context, _ uuid.UUID, step string) error {
	f.calls = append(f.calls, "start "+step)
	return nil
}

func (f *fakeLedger) FinishStep(_ context.Context, _ uuid.UUID, step, status, errMsg string) error {
	call := fmt.Sprintf("finish %s %s", step, status)
	if errMsg != "" {
		call += " (" + errMsg + ")"
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeLedger) CompleteRun(_ context.Context, c RunCompletion) error {
	f.calls = append(f.calls, "complete "+c.Status)
	f.completions = append(f.completions, c)
	return nil
}

func (f *fakeLedger) IncrementCustomizeCount(_ context.Context, profileName string, _ time.Time) (int, error) {
	f.calls = append(f.calls, "count "+profileName)
	return 1, nil
}

func stageEvent(id string, s workflow.Stage) workflow.Event {
	return workflow.Event{RunID: id, Type: workflow.EventStage, Stage: s, Timestamp: time.Now()}
}

func TestRecorder_SuccessfulRun(t *testing.T) {
	ledger := &fakeLedger{}
	rec := NewRecorder(ledger, logging.Discard())
	ctx := context.Background()
	id := uuid.New().String()

	events := []workflow.Event{
		{RunID: id, Type: workflow.EventStarted, ProfileName: "jane-smith", JobLink: "https://acme.example/jobs/1"},
		stageEvent(id, workflow.StageFetchingBase),
		{RunID: id, Type: workflow.EventTick},
		stageEvent(id, workflow.StageCustomizing),
		stageEvent(id, workflow.StageSubmitting),
		{RunID: id, Type: workflow.EventStatus, Message: workflow.StatusTrackingSkipped},
		stageEvent(id, workflow.StageRenderingResume),
		stageEvent(id, workflow.StageRenderingCoverLetterText),
		stageEvent(id, workflow.StageRenderingCoverLetterPDF),
		{RunID: id, Type: workflow.EventComplete, Outcome: workflow.OutcomeSucceeded, Run: &workflow.PipelineRun{
			TargetCompany: "Acme Corp", TargetRole: "Senior Backend Engineer", ElapsedSeconds: 7,
		}},
	}
	for _, e := range events {
		rec.Record(ctx, e)
	}

	assert.Equal(t, []string{
		"create jane-smith https://acme.example/jobs/1",
		"start fetching_base",
		"finish fetching_base completed",
		"start customizing",
		"finish customizing completed",
		"count jane-smith",
		"start submitting",
		"finish submitting skipped",
		"start rendering_resume",
		"finish rendering_resume completed",
		"start rendering_cover_letter_text",
		"finish rendering_cover_letter_text completed",
		"start rendering_cover_letter_pdf",
		"finish rendering_cover_letter_pdf completed",
		"complete succeeded",
	}, ledger.calls)

	require.Len(t, ledger.completions, 1)
	c := ledger.completions[0]
	assert.Equal(t, "Acme Corp", c.Company)
	assert.Equal(t, "Senior Backend Engineer", c.RoleTitle)
	assert.Equal(t, 7, c.ElapsedSeconds)
	assert.Equal(t, uuid.MustParse(id), c.RunID)
}

func TestRecorder_TrackingFailureAndStageFailure(t *testing.T) {
	ledger := &fakeLedger{}
	rec := NewRecorder(ledger, logging.Discard())
	ctx := context.Background()
	id := uuid.New().String()

	events := []workflow.Event{
		{RunID: id, Type: workflow.EventStarted, ProfileName: "jane-smith"},
		stageEvent(id, workflow.StageSubmitting),
		{RunID: id, Type: workflow.EventStatus, Kind: workflow.KindNonFatalSubmission, Error: "submitting: HTTP 502"},
		stageEvent(id, workflow.StageRenderingResume),
		{RunID: id, Type: workflow.EventComplete, Outcome: workflow.OutcomeFailed, Error: "rendering_resume: boom",
			Run: &workflow.PipelineRun{FailedStage: workflow.StageRenderingResume, FailureReason: "boom", TrackingError: "HTTP 502"}},
	}
	for _, e := range events {
		rec.Record(ctx, e)
	}

	assert.Contains(t, ledger.calls, "finish submitting failed (submitting: HTTP 502)")
	assert.Contains(t, ledger.calls, "finish rendering_resume failed (rendering_resume: boom)")
	assert.Equal(t, "complete failed", ledger.calls[len(ledger.calls)-1])

	c := ledger.completions[0]
	assert.Equal(t, RunStatusFailed, c.Status)
	assert.Equal(t, "rendering_resume", c.FailedStage)
	assert.Equal(t, "boom", c.FailureReason)
	assert.Equal(t, "HTTP 502", c.TrackingError)
}

func TestRecorder_IgnoresEventsWithoutRun(t *testing.T) {
	ledger := &fakeLedger{}
	rec := NewRecorder(ledger, logging.Discard())

	rec.Record(context.Background(), stageEvent("x", workflow.StageCustomizing))
	rec.Record(context.Background(), workflow.Event{Type: workflow.EventComplete})
	rec.Record(context.Background(), workflow.Event{Type: workflow.EventStarted, RunID: "not-a-uuid"})

	assert.Empty(t, ledger.calls)
}

func TestRecorder_LedgerErrorsAreNotFatal(t *testing.T) {
	ledger := &fakeLedger{failCreate: true}
	rec := NewRecorder(ledger, logging.Discard())
	id := uuid.New().String()

	rec.Record(context.Background(), workflow.Event{RunID: id, Type: workflow.EventStarted, ProfileName: "a"})
	rec.Record(context.Background(), stageEvent(id, workflow.StageFetchingBase))

	assert.Equal(t, []string{"create a ", "start fetching_base"}, ledger.calls)
}

func TestRecorder_ConsumeStopsOnClose(t *testing.T) {
	ledger := &fakeLedger{}
	rec := NewRecorder(ledger, logging.Discard())
	ch := make(chan workflow.Event, 2)
	ch <- workflow.Event{RunID: uuid.New().String(), Type: workflow.EventStarted, ProfileName: "a"}
	close(ch)

	done := make(chan struct{})
	go func() {
		rec.Consume(context.Background(), ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after channel close")
	}
	assert.Len(t, ledger.calls, 1)
}

func TestDB_SatisfiesLedger(t *testing.T) {
	var _ Ledger = (*DB)(nil)
}
