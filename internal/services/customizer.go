package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
)

// jobRequest is the shared payload of the customization and cover-letter endpoints
type jobRequest struct {
	Resume         any    `json:"resume"`
	JobDescription string `json:"job_description"`
}

// Customizer tailors a base resume to a job description
type Customizer struct {
	endpoint
}

// NewCustomizer creates a customization service client rooted at baseURL
func NewCustomizer(baseURL string, opts Options) *Customizer {
	return &Customizer{endpoint: newEndpoint(baseURL, opts)}
}

// Customize returns the tailored resume. It does not check the extracted
// company and role; callers decide how to treat missing metadata.
func (c *Customizer) Customize(ctx context.Context, profile *types.ResumeProfile, jobDescription string) (*types.CustomizedResume, error) {
	const op = "customize resume"

	resp, err := c.do(ctx, op, http.MethodPost, "/resume/customize", jobRequest{
		Resume:         profile,
		JobDescription: jobDescription,
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() || resp.errorMessage() != "" {
		return nil, resp.failure(op)
	}
	if err := schemas.Validate(schemas.SchemaResume, resp.body); err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.status, Message: "malformed response", Cause: err}
	}

	var customized types.CustomizedResume
	if err := json.Unmarshal(resp.body, &customized); err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.status, Message: "malformed response", Cause: err}
	}
	return &customized, nil
}
