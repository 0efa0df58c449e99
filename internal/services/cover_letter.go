package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
)

// CoverLetters generates cover-letter prose for a customized resume
type CoverLetters struct {
	endpoint
}

// NewCoverLetters creates a cover-letter service client rooted at baseURL
func NewCoverLetters(baseURL string, opts Options) *CoverLetters {
	return &CoverLetters{endpoint: newEndpoint(baseURL, opts)}
}

// Generate returns the cover-letter draft. An empty body is returned as-is.
func (c *CoverLetters) Generate(ctx context.Context, resume *types.CustomizedResume, jobDescription string) (*types.CoverLetterDraft, error) {
	const op = "generate cover letter"

	resp, err := c.do(ctx, op, http.MethodPost, "/resume/coverletter", jobRequest{
		Resume:         resume,
		JobDescription: jobDescription,
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() || resp.errorMessage() != "" {
		return nil, resp.failure(op)
	}
	if err := schemas.Validate(schemas.SchemaCoverLetter, resp.body); err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.status, Message: "malformed response", Cause: err}
	}

	var draft types.CoverLetterDraft
	if err := json.Unmarshal(resp.body, &draft); err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.status, Message: "malformed response", Cause: err}
	}
	return &draft, nil
}
