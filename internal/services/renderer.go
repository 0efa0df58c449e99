package services

import (
	"context"
	"net/http"
)

// Renderer turns a resume-shaped document into a PDF
type Renderer struct {
	endpoint
}

// NewRenderer creates a document renderer client rooted at baseURL
func NewRenderer(baseURL string, opts Options) *Renderer {
	return &Renderer{endpoint: newEndpoint(baseURL, opts)}
}

// Render posts the document and returns the PDF bytes
func (r *Renderer) Render(ctx context.Context, document any) ([]byte, error) {
	const op = "render pdf"

	resp, err := r.do(ctx, op, http.MethodPost, "/resume/pdf", document)
	if err != nil {
		return nil, err
	}
	if !resp.ok() || (resp.isJSON() && resp.errorMessage() != "") {
		return nil, resp.failure(op)
	}
	if len(resp.body) == 0 {
		return nil, &ServiceError{Op: op, StatusCode: resp.status, Message: "empty document"}
	}
	return resp.body, nil
}
