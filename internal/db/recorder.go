package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/workflow"
)

// Ledger is the subset of DB the Recorder writes to
type Ledger interface {
	CreateRun(ctx context.Context, runID uuid.UUID, profileName, jobURL string) error
	StartStep(ctx context.Context, runID uuid.UUID, step string) error
	FinishStep(ctx context.Context, runID uuid.UUID, step, status, errMsg string) error
	CompleteRun(ctx context.Context, c RunCompletion) error
	IncrementCustomizeCount(ctx context.Context, profileName string, at time.Time) (int, error)
}

// Recorder persists workflow events to a Ledger. Write failures are logged and
// never affect the run.
type Recorder struct {
	ledger Ledger
	logger *slog.Logger

	runID   uuid.UUID
	profile string
	step    workflow.Stage
	stepErr string
	skipped bool
}

// NewRecorder creates a recorder writing to ledger
func NewRecorder(ledger Ledger, logger *slog.Logger) *Recorder {
	return &Recorder{ledger: ledger, logger: logger}
}

// Consume records events until the channel closes or ctx is done
func (r *Recorder) Consume(ctx context.Context, events <-chan workflow.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			r.Record(ctx, e)
		}
	}
}

// Record applies a single event
func (r *Recorder) Record(ctx context.Context, e workflow.Event) {
	switch e.Type {
	case workflow.EventStarted:
		id, err := uuid.Parse(e.RunID)
		if err != nil {
			r.warn("invalid run id", err)
			return
		}
		r.runID, r.profile, r.step, r.stepErr, r.skipped = id, e.ProfileName, "", "", false
		r.check("create run", r.ledger.CreateRun(ctx, id, e.ProfileName, e.JobLink))

	case workflow.EventStage:
		if r.runID == uuid.Nil {
			return
		}
		r.finishStep(ctx, true, "")
		if e.Stage == workflow.StageSubmitting {
			// customization succeeded
			_, err := r.ledger.IncrementCustomizeCount(ctx, r.profile, e.Timestamp)
			r.check("increment customize count", err)
		}
		r.step, r.stepErr, r.skipped = e.Stage, "", false
		r.check("start step", r.ledger.StartStep(ctx, r.runID, string(e.Stage)))

	case workflow.EventStatus:
		if e.Kind == workflow.KindNonFatalSubmission {
			r.stepErr = e.Error
		}
		if e.Message == workflow.StatusTrackingSkipped {
			r.skipped = true
		}

	case workflow.EventComplete:
		if r.runID == uuid.Nil {
			return
		}
		succeeded := e.Outcome == workflow.OutcomeSucceeded
		r.finishStep(ctx, succeeded, e.Error)

		completion := RunCompletion{RunID: r.runID, Status: RunStatusFailed}
		if succeeded {
			completion.Status = RunStatusSucceeded
		}
		if e.Run != nil {
			completion.Company = e.Run.TargetCompany
			completion.RoleTitle = e.Run.TargetRole
			completion.FailedStage = string(e.Run.FailedStage)
			completion.FailureReason = e.Run.FailureReason
			completion.TrackingError = e.Run.TrackingError
			completion.ElapsedSeconds = e.Run.ElapsedSeconds
		}
		r.check("complete run", r.ledger.CompleteRun(ctx, completion))
		r.runID, r.step = uuid.Nil, ""
	}
}

// finishStep closes the open step. ok is false when the step failed the run.
func (r *Recorder) finishStep(ctx context.Context, ok bool, failure string) {
	if r.step == "" {
		return
	}
	status, msg := StepStatusCompleted, r.stepErr
	switch {
	case !ok:
		status, msg = StepStatusFailed, failure
	case r.skipped:
		status = StepStatusSkipped
	case r.stepErr != "":
		status = StepStatusFailed
	}
	r.check("finish step", r.ledger.FinishStep(ctx, r.runID, string(r.step), status, msg))
	r.step = ""
}

func (r *Recorder) check(op string, err error) {
	if err != nil {
		r.warn(op, err)
	}
}

func (r *Recorder) warn(op string, err error) {
	if r.logger != nil {
		r.logger.Warn("run ledger write failed", "op", op, "run_id", r.runID, "error", err)
	}
}
