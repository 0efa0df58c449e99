// Package workflow runs the resume generation workflow: fetch a base profile,
// tailor it to a job description, record the application, and render the
// resume and cover-letter documents, reporting progress as it goes.
package workflow

import (
	"fmt"
	"time"
)

// Stage is one state of the workflow state machine
type Stage string

const (
	StageIdle                     Stage = "idle"
	StageFetchingBase             Stage = "fetching_base"
	StageCustomizing              Stage = "customizing"
	StageSubmitting               Stage = "submitting"
	StageRenderingResume          Stage = "rendering_resume"
	StageRenderingCoverLetterText Stage = "rendering_cover_letter_text"
	StageRenderingCoverLetterPDF  Stage = "rendering_cover_letter_pdf"
	StageSucceeded                Stage = "succeeded"
	StageFailed                   Stage = "failed"
)

// Terminal reports whether no further transitions happen within the run
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// Active reports whether a run is executing in this stage
func (s Stage) Active() bool {
	_, ok := stageIndex[s]
	return ok
}

// Outcome is the overall result of a run
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// PipelineRun is the observable state of the current run
type PipelineRun struct {
	ID             string     `json:"id"`
	ProfileName    string     `json:"profile_name"`
	JobLink        string     `json:"job_link,omitempty"`
	Stage          Stage      `json:"stage"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	StatusMessage  string     `json:"status_message"`
	Outcome        Outcome    `json:"outcome"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	FailedStage    Stage      `json:"failed_stage,omitempty"`
	TargetCompany  string     `json:"target_company,omitempty"`
	TargetRole     string     `json:"target_role,omitempty"`
	TrackingError  string     `json:"tracking_error,omitempty"`
	Downloads      []string   `json:"downloads"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// clone returns a copy that shares no slices or pointers with r
func (r PipelineRun) clone() PipelineRun {
	out := r
	out.Downloads = append([]string{}, r.Downloads...)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// stageIndex orders the active stages
var stageIndex = map[Stage]int{
	StageFetchingBase:             0,
	StageCustomizing:              1,
	StageSubmitting:               2,
	StageRenderingResume:          3,
	StageRenderingCoverLetterText: 4,
	StageRenderingCoverLetterPDF:  5,
}

// isValidTransition enforces the forward-only edges of the state machine.
// A terminal run may only be replaced by a new run entering fetching_base.
func isValidTransition(from, to Stage) bool {
	switch {
	case from == StageIdle || from.Terminal():
		return to == StageFetchingBase
	case to == StageFailed:
		return from.Active()
	case to == StageSucceeded:
		return from == StageRenderingCoverLetterPDF
	default:
		fi, okFrom := stageIndex[from]
		ti, okTo := stageIndex[to]
		return okFrom && okTo && ti == fi+1
	}
}

func transitionError(from, to Stage) error {
	return fmt.Errorf("invalid transition: %s -> %s", from, to)
}
