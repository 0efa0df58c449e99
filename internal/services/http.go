// Package services provides thin HTTP clients for the remote services the workflow depends on:
// the resume store, the customization and cover-letter generators, the PDF renderer,
// and the application tracking system.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AuthHeader carries the shared access key on every outbound request
const AuthHeader = "X-Auth-Key"

// DefaultTimeout bounds a single remote call when Options.Timeout is zero
const DefaultTimeout = 120 * time.Second

// maxErrorBody caps how much of an error response is echoed into error messages
const maxErrorBody = 512

// Options configures the shared HTTP behaviour of all clients
type Options struct {
	AuthKey string
	Timeout time.Duration
	HTTP    *http.Client // optional; a client with Timeout is created when nil
}

func (o Options) httpClient() *http.Client {
	if o.HTTP != nil {
		return o.HTTP
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// response is a fully-read HTTP response
type response struct {
	status      int
	contentType string
	body        []byte
}

// endpoint is the shared request plumbing embedded by every client
type endpoint struct {
	baseURL string
	authKey string
	http    *http.Client
}

func newEndpoint(baseURL string, opts Options) endpoint {
	return endpoint{
		baseURL: strings.TrimRight(baseURL, "/"),
		authKey: opts.AuthKey,
		http:    opts.httpClient(),
	}
}

// do sends a request with an optional JSON body and reads the whole response
func (e endpoint) do(ctx context.Context, op, method, path string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &ServiceError{Op: op, Message: "failed to encode request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return nil, &ServiceError{Op: op, Message: "failed to build request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.authKey != "" {
		req.Header.Set(AuthHeader, e.authKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: op, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// ok reports a 2xx status
func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// isJSON reports whether the response declares a JSON body
func (r *response) isJSON() bool {
	return strings.Contains(r.contentType, "json")
}

// errorMessage extracts the message of an `{"error": "..."}` body.
// The document services answer 200 with such a body when they fail internally.
func (r *response) errorMessage() string {
	var envelope struct {
		Error  any `json:"error"`
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(r.body, &envelope); err != nil {
		return ""
	}
	for _, v := range []any{envelope.Error, envelope.Detail} {
		switch msg := v.(type) {
		case string:
			if msg != "" {
				return msg
			}
		case nil:
		default:
			return fmt.Sprint(msg)
		}
	}
	return ""
}

// failure builds a ServiceError from a non-2xx or error-envelope response
func (r *response) failure(op string) *ServiceError {
	msg := r.errorMessage()
	if msg == "" {
		msg = strings.TrimSpace(string(r.body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
	}
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	return &ServiceError{Op: op, StatusCode: r.status, Message: msg}
}

// decodeJSON checks status and error envelope, then unmarshals into out
func (r *response) decodeJSON(op string, out any) error {
	if !r.ok() || r.errorMessage() != "" {
		return r.failure(op)
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return &ServiceError{Op: op, StatusCode: r.status, Message: "malformed response", Cause: err}
	}
	return nil
}
