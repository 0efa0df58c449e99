package db

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus constants
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// StepStatus constants
const (
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// Run represents a pipeline run record
type Run struct {
	ID             uuid.UUID  `json:"id"`
	ProfileName    string     `json:"profile_name"`
	JobURL         string     `json:"job_url"`
	Company        string     `json:"company"`
	RoleTitle      string     `json:"role_title"`
	Status         string     `json:"status"`
	FailedStage    string     `json:"failed_stage,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	TrackingError  string     `json:"tracking_error,omitempty"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RunCompletion is the terminal state written by CompleteRun
type RunCompletion struct {
	RunID          uuid.UUID
	Status         string
	Company        string
	RoleTitle      string
	FailedStage    string
	FailureReason  string
	TrackingError  string
	ElapsedSeconds int
}

// RunStep represents a single stage execution for a pipeline run
type RunStep struct {
	ID           uuid.UUID  `json:"id"`
	RunID        uuid.UUID  `json:"run_id"`
	Step         string     `json:"step"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   *int       `json:"duration_ms,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ProfileCount is one profile's customization count for a day
type ProfileCount struct {
	ProfileKey string `json:"profile_key"`
	Count      int    `json:"count"`
}
