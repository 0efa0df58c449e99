package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-tailor/internal/services"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "profile_name", Message: "required"}, http.StatusBadRequest},
		{"invalid request", fmt.Errorf("start: %w", workflow.ErrInvalidRequest), http.StatusBadRequest},
		{"run in progress", workflow.ErrRunInProgress, http.StatusConflict},
		{"no run", workflow.ErrNoRun, http.StatusNotFound},
		{"download", &ErrDownloadNotFound{Filename: "a.pdf"}, http.StatusNotFound},
		{"ledger run", &ErrRunNotFound{ID: "42"}, http.StatusNotFound},
		{"profile not found", &services.NotFoundError{Name: "ghost"}, http.StatusNotFound},
		{"disposed", workflow.ErrDisposed, http.StatusServiceUnavailable},
		{"not configured", &ErrNotConfigured{Feature: "run history"}, http.StatusServiceUnavailable},
		{"upstream", &services.ServiceError{Op: "list resumes", StatusCode: 500}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: limit - must be positive", (&ErrValidation{Field: "limit", Message: "must be positive"}).Error())
	assert.Equal(t, "run history is not configured", (&ErrNotConfigured{Feature: "run history"}).Error())
	assert.Equal(t, "download not found: a.pdf", (&ErrDownloadNotFound{Filename: "a.pdf"}).Error())
	assert.Equal(t, "run not found: 42", (&ErrRunNotFound{ID: "42"}).Error())
}
