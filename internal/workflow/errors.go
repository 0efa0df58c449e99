package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-tailor/internal/services"
)

var (
	// ErrRunInProgress is returned when a run is started while another is active
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrInvalidRequest wraps every input validation failure
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoRun is returned when the current run is requested before any run started
	ErrNoRun = errors.New("no run has been started")
	// ErrDisposed is returned when starting a run on a disposed controller
	ErrDisposed = errors.New("controller disposed")
)

// ErrorKind classifies a stage failure
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindService            ErrorKind = "service_error"
	KindValidation         ErrorKind = "validation_error"
	KindNonFatalSubmission ErrorKind = "non_fatal_submission"
)

// StageError is a failure tagged with the stage that produced it
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ValidationError reports a well-formed response missing required content
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// newStageError tags err with stage and derives its kind
func newStageError(stage Stage, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	kind := KindService
	var ve *ValidationError
	switch {
	case errors.Is(err, services.ErrNotFound):
		kind = KindNotFound
	case errors.As(err, &ve):
		kind = KindValidation
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// fieldLabels names the customized-resume fields in failure messages
var fieldLabels = map[string]string{
	"TargetCompany": "target company",
	"TargetRole":    "target role",
}

// missingMetadata converts validator output into a ValidationError
func missingMetadata(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		missing = append(missing, label)
	}
	return &ValidationError{Message: "customized resume is missing " + strings.Join(missing, " and ")}
}

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}
