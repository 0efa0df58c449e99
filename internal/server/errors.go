package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/services"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotConfigured indicates an endpoint whose backing store is not configured
type ErrNotConfigured struct {
	Feature string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("%s is not configured", e.Feature)
}

// ErrDownloadNotFound indicates a document that the current run has not produced
type ErrDownloadNotFound struct {
	Filename string
}

func (e *ErrDownloadNotFound) Error() string {
	return fmt.Sprintf("download not found: %s", e.Filename)
}

// ErrRunNotFound indicates a run ID with no ledger entry
type ErrRunNotFound struct {
	ID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notConfigured *ErrNotConfigured
		downloadErr   *ErrDownloadNotFound
		runErr        *ErrRunNotFound
		serviceErr    *services.ServiceError
	)
	switch {
	case errors.As(err, &validationErr), errors.Is(err, workflow.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrNoRun), errors.As(err, &downloadErr), errors.As(err, &runErr), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrDisposed), errors.As(err, &notConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
