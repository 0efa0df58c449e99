package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
)

// ResumeStore fetches base resume profiles by name
type ResumeStore struct {
	endpoint
}

// NewResumeStore creates a resume store client rooted at baseURL
func NewResumeStore(baseURL string, opts Options) *ResumeStore {
	return &ResumeStore{endpoint: newEndpoint(baseURL, opts)}
}

// Get retrieves the named profile. A 404 or an error envelope is reported as *NotFoundError.
func (s *ResumeStore) Get(ctx context.Context, name string) (*types.ResumeProfile, error) {
	resp, err := s.do(ctx, "fetch resume", http.MethodGet, "/resume/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusNotFound {
		return nil, &NotFoundError{Name: name, Message: resp.errorMessage()}
	}
	if resp.ok() {
		if msg := resp.errorMessage(); msg != "" {
			if strings.Contains(strings.ToLower(msg), "not found") {
				return nil, &NotFoundError{Name: name, Message: msg}
			}
			return nil, resp.failure("fetch resume")
		}
		if err := schemas.Validate(schemas.SchemaResume, resp.body); err != nil {
			return nil, &ServiceError{Op: "fetch resume", StatusCode: resp.status, Message: "malformed response", Cause: err}
		}
	}

	var profile types.ResumeProfile
	if err := resp.decodeJSON("fetch resume", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns the names of all stored profiles
func (s *ResumeStore) List(ctx context.Context) ([]string, error) {
	resp, err := s.do(ctx, "list resumes", http.MethodGet, "/resume/", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Resumes []string `json:"resumes"`
	}
	if err := resp.decodeJSON("list resumes", &out); err != nil {
		return nil, err
	}
	if out.Resumes == nil {
		return []string{}, nil
	}
	return out.Resumes, nil
}
