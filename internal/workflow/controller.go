package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/download"
	"github.com/jonathan/resume-tailor/internal/logging"
	"github.com/jonathan/resume-tailor/internal/services"
	"github.com/jonathan/resume-tailor/internal/types"
)

// ResumeStore fetches base profiles
type ResumeStore interface {
	Get(ctx context.Context, name string) (*types.ResumeProfile, error)
}

// Customizer tailors a profile to a job description
type Customizer interface {
	Customize(ctx context.Context, profile *types.ResumeProfile, jobDescription string) (*types.CustomizedResume, error)
}

// Tracker records a submitted application
type Tracker interface {
	Submit(ctx context.Context, sub services.Submission) error
}

// Renderer turns a resume-shaped document into PDF bytes
type Renderer interface {
	Render(ctx context.Context, document any) ([]byte, error)
}

// CoverLetterWriter generates cover-letter prose
type CoverLetterWriter interface {
	Generate(ctx context.Context, resume *types.CustomizedResume, jobDescription string) (*types.CoverLetterDraft, error)
}

// Dependencies are the collaborators a Controller calls. Tracker may be nil,
// in which case the submission stage is skipped.
type Dependencies struct {
	Store        ResumeStore
	Customizer   Customizer
	Tracker      Tracker
	Renderer     Renderer
	CoverLetters CoverLetterWriter
	Downloads    download.Trigger
}

// Options tunes a Controller
type Options struct {
	Tick       time.Duration // elapsed-timer interval; DefaultTick when zero
	RunTimeout time.Duration // upper bound for a whole run; none when zero
	MaxEvents  int           // event history size
	Logger     *slog.Logger
}

// RunRequest is the input of one run
type RunRequest struct {
	ProfileName    string `json:"profile_name"`
	JobDescription string `json:"job_description"`
	JobLink        string `json:"job_link"`
}

// Validate checks the request before any state changes
func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.ProfileName) == "" {
		return invalidRequest("profile name is required")
	}
	if strings.TrimSpace(r.JobDescription) == "" {
		return invalidRequest("job description is required")
	}
	return nil
}

// Controller owns the state of the current run and executes runs one at a time
type Controller struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
	events *EventBus

	inFlight atomic.Bool
	disposed atomic.Bool

	mu      sync.RWMutex
	run     PipelineRun
	started bool
	timer   *ElapsedTimer
}

// NewController creates an idle controller
func NewController(deps Dependencies, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		deps:   deps,
		opts:   opts,
		logger: logger,
		events: NewEventBus(opts.MaxEvents),
		run:    PipelineRun{Stage: StageIdle, Downloads: []string{}},
	}
}

// Events exposes the event history for polling
func (c *Controller) Events() *EventBus {
	return c.events
}

// Subscribe returns a channel of events published from now on and an unsubscribe function
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.Subscribe()
}

// Snapshot returns a copy of the observable run state
func (c *Controller) Snapshot() PipelineRun {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run.clone()
}

// Current returns the latest run, or ErrNoRun before the first run
func (c *Controller) Current() (PipelineRun, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return PipelineRun{}, ErrNoRun
	}
	return c.run.clone(), nil
}

// Busy reports whether a run is in flight
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

// Start validates req and launches a run in the background, returning its ID
func (c *Controller) Start(ctx context.Context, req RunRequest) (string, error) {
	id, _, err := c.start(ctx, req)
	return id, err
}

// Run executes a run and blocks until it is terminal. The returned error is
// ErrInvalidRequest, ErrRunInProgress or ErrDisposed before the run starts,
// or the *StageError that failed it.
func (c *Controller) Run(ctx context.Context, req RunRequest) (PipelineRun, error) {
	_, done, err := c.start(ctx, req)
	if err != nil {
		return c.Snapshot(), err
	}
	stageErr := <-done
	if stageErr != nil {
		return c.Snapshot(), stageErr
	}
	return c.Snapshot(), nil
}

// Dispose stops the timer and closes subscriber channels. A run in flight
// keeps going but its updates are no longer published.
func (c *Controller) Dispose() {
	// disposed flips under mu so start either sees it or has already published its timer
	c.mu.Lock()
	if c.disposed.Swap(true) {
		c.mu.Unlock()
		return
	}
	timer := c.timer
	c.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	c.events.Close()
}

func (c *Controller) start(ctx context.Context, req RunRequest) (string, <-chan *StageError, error) {
	if err := req.Validate(); err != nil {
		return "", nil, err
	}
	if c.disposed.Load() {
		return "", nil, ErrDisposed
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return "", nil, ErrRunInProgress
	}

	id := uuid.New().String()
	timer := NewElapsedTimer(c.opts.Tick, c.tick)

	c.mu.Lock()
	if c.disposed.Load() {
		c.mu.Unlock()
		c.inFlight.Store(false)
		return "", nil, ErrDisposed
	}
	if !isValidTransition(c.run.Stage, StageFetchingBase) {
		c.mu.Unlock()
		c.inFlight.Store(false)
		return "", nil, transitionError(c.run.Stage, StageFetchingBase)
	}
	c.run = PipelineRun{
		ID:            id,
		ProfileName:   req.ProfileName,
		JobLink:       req.JobLink,
		Stage:         StageIdle,
		StatusMessage: StatusStarting,
		Outcome:       OutcomePending,
		Downloads:     []string{},
		StartedAt:     time.Now().UTC(),
	}
	c.started = true
	c.timer = timer
	c.mu.Unlock()

	c.logger.Info("run started", "run_id", id, "profile", req.ProfileName)
	c.publish(Event{Type: EventStarted, ProfileName: req.ProfileName, JobLink: req.JobLink, Message: StatusStarting})

	runCtx := ctx
	var cancel context.CancelFunc = func() {}
	if c.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
	}

	done := make(chan *StageError, 1)
	timer.Start()
	go func() {
		defer cancel()
		stageErr := c.execute(runCtx, req)
		c.finish(timer, stageErr)
		c.inFlight.Store(false)
		done <- stageErr
		close(done)
	}()
	return id, done, nil
}

// execute runs the stages in order and returns the first fatal failure
func (c *Controller) execute(ctx context.Context, req RunRequest) *StageError {
	profile, err := c.fetchBase(ctx, req)
	if err != nil {
		return err
	}
	customized, err := c.customize(ctx, req, profile)
	if err != nil {
		return err
	}
	if err := c.submit(ctx, req, customized); err != nil {
		return err
	}
	base := download.SafeFilename(firstNonEmpty(customized.Name, req.ProfileName))
	if err := c.renderResume(ctx, customized, base); err != nil {
		return err
	}
	draft, err := c.writeCoverLetter(ctx, req, customized)
	if err != nil {
		return err
	}
	return c.renderCoverLetter(ctx, req, customized, draft, base)
}

func (c *Controller) fetchBase(ctx context.Context, req RunRequest) (*types.ResumeProfile, *StageError) {
	if err := c.enter(StageFetchingBase); err != nil {
		return nil, err
	}
	profile, err := c.deps.Store.Get(ctx, req.ProfileName)
	if err != nil {
		return nil, newStageError(StageFetchingBase, err)
	}
	return profile, nil
}

func (c *Controller) customize(ctx context.Context, req RunRequest, profile *types.ResumeProfile) (*types.CustomizedResume, *StageError) {
	if err := c.enter(StageCustomizing); err != nil {
		return nil, err
	}
	customized, err := c.deps.Customizer.Customize(ctx, profile, req.JobDescription)
	if err != nil {
		return nil, newStageError(StageCustomizing, err)
	}

	c.update(func(r *PipelineRun) {
		r.TargetCompany = customized.TargetCompany
		r.TargetRole = customized.TargetRole()
	})
	if err := customized.Validate(); err != nil {
		return nil, newStageError(StageCustomizing, missingMetadata(err))
	}
	return customized, nil
}

// submit never fails the run; tracker errors are recorded on the snapshot
func (c *Controller) submit(ctx context.Context, req RunRequest, customized *types.CustomizedResume) *StageError {
	if err := c.enter(StageSubmitting); err != nil {
		return err
	}
	if c.deps.Tracker == nil {
		c.setStatus(StatusTrackingSkipped)
		return nil
	}

	err := c.deps.Tracker.Submit(ctx, services.Submission{
		ProfileName: req.ProfileName,
		CompanyName: customized.TargetCompany,
		JobLink:     req.JobLink,
		RoleName:    customized.TargetRole(),
		Resume:      customized,
	})
	if err != nil {
		stageErr := &StageError{Stage: StageSubmitting, Kind: KindNonFatalSubmission, Err: err}
		c.logger.Warn("tracking submission failed", "run_id", c.runID(), "error", err)
		c.update(func(r *PipelineRun) {
			r.TrackingError = err.Error()
			r.StatusMessage = StatusTrackingNotSent
		})
		c.publish(Event{Type: EventStatus, Stage: StageSubmitting, Message: StatusTrackingNotSent,
			Kind: stageErr.Kind, Error: stageErr.Error()})
		return nil
	}
	c.setStatus(StatusTrackingSent)
	return nil
}

func (c *Controller) renderResume(ctx context.Context, customized *types.CustomizedResume, base string) *StageError {
	if err := c.enter(StageRenderingResume); err != nil {
		return err
	}
	pdf, err := c.deps.Renderer.Render(ctx, customized)
	if err != nil {
		return newStageError(StageRenderingResume, err)
	}
	return c.save(ctx, StageRenderingResume, base+".pdf", pdf)
}

func (c *Controller) writeCoverLetter(ctx context.Context, req RunRequest, customized *types.CustomizedResume) (*types.CoverLetterDraft, *StageError) {
	if err := c.enter(StageRenderingCoverLetterText); err != nil {
		return nil, err
	}
	draft, err := c.deps.CoverLetters.Generate(ctx, customized, req.JobDescription)
	if err != nil {
		return nil, newStageError(StageRenderingCoverLetterText, err)
	}
	if draft == nil || strings.TrimSpace(draft.Body) == "" {
		return nil, newStageError(StageRenderingCoverLetterText, &ValidationError{Message: "cover letter service returned an empty body"})
	}
	return draft, nil
}

func (c *Controller) renderCoverLetter(ctx context.Context, req RunRequest, customized *types.CustomizedResume, draft *types.CoverLetterDraft, base string) *StageError {
	if err := c.enter(StageRenderingCoverLetterPDF); err != nil {
		return err
	}
	doc := customized.CoverLetterDocument(draft.Body, req.ProfileName)
	pdf, err := c.deps.Renderer.Render(ctx, doc)
	if err != nil {
		return newStageError(StageRenderingCoverLetterPDF, err)
	}
	return c.save(ctx, StageRenderingCoverLetterPDF, base+"_cover_letter.pdf", pdf)
}

// save hands a rendered document to the download trigger
func (c *Controller) save(ctx context.Context, stage Stage, filename string, pdf []byte) *StageError {
	if err := c.deps.Downloads.Save(ctx, filename, download.ContentTypePDF, pdf); err != nil {
		return &StageError{Stage: stage, Kind: KindService, Err: fmt.Errorf("download %s: %w", filename, err)}
	}
	c.update(func(r *PipelineRun) {
		r.Downloads = append(r.Downloads, filename)
		r.StatusMessage = StatusDownloadComplete
	})
	c.logger.Info("document saved", "run_id", c.runID(), "file", filename, "bytes", len(pdf))
	c.publish(Event{Type: EventDownload, Stage: stage, Filename: filename, Message: StatusDownloadComplete})
	return nil
}

// enter moves the run into an active stage
func (c *Controller) enter(stage Stage) *StageError {
	info, _ := LookupStage(stage)

	c.mu.Lock()
	from := c.run.Stage
	if !isValidTransition(from, stage) {
		c.mu.Unlock()
		return &StageError{Stage: stage, Kind: KindService, Err: transitionError(from, stage)}
	}
	c.run.Stage = stage
	c.run.StatusMessage = info.Status
	elapsed := c.run.ElapsedSeconds
	id := c.run.ID
	c.mu.Unlock()

	c.logger.Info("stage", "run_id", id, "stage", stage, "elapsed_s", elapsed)
	c.publish(Event{Type: EventStage, Stage: stage, Message: info.Status})
	return nil
}

// finish stops the timer and records the terminal state
func (c *Controller) finish(timer *ElapsedTimer, stageErr *StageError) {
	timer.Stop()
	now := time.Now().UTC()

	c.mu.Lock()
	if stageErr == nil {
		c.run.Stage = StageSucceeded
		c.run.Outcome = OutcomeSucceeded
		c.run.StatusMessage = StatusSucceeded
	} else {
		c.run.Stage = StageFailed
		c.run.Outcome = OutcomeFailed
		c.run.FailedStage = stageErr.Stage
		c.run.FailureReason = stageErr.Err.Error()
		c.run.StatusMessage = statusFailurePrefix + stageErr.Error()
	}
	c.run.FinishedAt = &now
	run := c.run.clone()
	c.mu.Unlock()

	event := Event{Type: EventComplete, Stage: run.Stage, Outcome: run.Outcome, Message: run.StatusMessage, Run: &run}
	if stageErr != nil {
		event.Kind = stageErr.Kind
		event.Error = stageErr.Error()
		c.logger.Error("run failed", "run_id", run.ID, "stage", stageErr.Stage, "kind", stageErr.Kind,
			"error", stageErr.Err, "elapsed_s", run.ElapsedSeconds)
	} else {
		c.logger.Info("run succeeded", "run_id", run.ID, "downloads", run.Downloads, "elapsed_s", run.ElapsedSeconds)
	}
	c.publish(event)
}

// tick is the timer callback and the only writer of ElapsedSeconds
func (c *Controller) tick(elapsed int) {
	c.mu.Lock()
	c.run.ElapsedSeconds = elapsed
	stage := c.run.Stage
	c.mu.Unlock()
	c.publish(Event{Type: EventTick, Stage: stage})
}

func (c *Controller) setStatus(msg string) {
	c.update(func(r *PipelineRun) { r.StatusMessage = msg })
	c.publish(Event{Type: EventStatus, Message: msg})
}

func (c *Controller) update(fn func(r *PipelineRun)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.run)
}

func (c *Controller) runID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run.ID
}

// publish stamps the event with the current run identity and elapsed time
func (c *Controller) publish(event Event) {
	c.mu.RLock()
	event.RunID = c.run.ID
	event.ElapsedSeconds = c.run.ElapsedSeconds
	if event.Stage == "" {
		event.Stage = c.run.Stage
	}
	c.mu.RUnlock()
	c.events.Publish(event)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
