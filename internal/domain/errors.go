package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when no URLs were supplied
	ErrInvalidInput = errors.New("no inputs provided")

	// ErrInvalidConcurrency is returned when a batch is asked to run with fewer than one worker
	ErrInvalidConcurrency = errors.New("max concurrency must be a positive integer")
)

// BackendError is a failure raised by the backend for a single URL.
// Its message is the backend's own message so it can be reported as is.
type BackendError struct {
	URL string
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError wraps err as a backend failure of op on url
func NewBackendError(url, op string, err error) *BackendError {
	return &BackendError{URL: url, Op: op, Err: err}
}

// EnvironmentError is a failure of the local environment that stops a whole batch
type EnvironmentError struct {
	Path string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("failed to prepare output directory %s: %v", e.Path, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}
