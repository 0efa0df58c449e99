package services

import (
	"context"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Submission is the record forwarded to the application tracking system
type Submission struct {
	ProfileName string                  `json:"profile_name"`
	CompanyName string                  `json:"company_name"`
	JobLink     string                  `json:"job_link"`
	RoleName    string                  `json:"role_name"`
	Resume      *types.CustomizedResume `json:"resume"`
}

// Tracker submits customized resumes to the tracking system
type Tracker struct {
	endpoint
}

// NewTracker creates a tracking-system client rooted at baseURL
func NewTracker(baseURL string, opts Options) *Tracker {
	return &Tracker{endpoint: newEndpoint(baseURL, opts)}
}

// Submit records one application. Any non-2xx response is an error.
func (t *Tracker) Submit(ctx context.Context, sub Submission) error {
	const op = "submit application"

	resp, err := t.do(ctx, op, http.MethodPost, "/api/applications", sub)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.failure(op)
	}
	return nil
}
