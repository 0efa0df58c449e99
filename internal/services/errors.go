package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors.Is for any NotFoundError
var ErrNotFound = errors.New("not found")

// NotFoundError indicates the resume store has no profile with the requested name
type NotFoundError struct {
	Name    string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("resume %q not found: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("resume %q not found", e.Name)
}

// Is reports whether target is ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ServiceError represents a failed or malformed response from a remote service
type ServiceError struct {
	Op         string // e.g. "customize", "render"
	StatusCode int    // 0 when the request never produced a response
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Cause)
		} else {
			msg = e.Cause.Error()
		}
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
