package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound means the page was fetched but holds no job posting. It is a
// normal extraction outcome, never retried.
var ErrNotFound = errors.New("no job posting at url")

// TransientError marks a failure worth retrying: timeouts, resets,
// rate-limit responses, 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure retrying cannot fix: auth rejection,
// malformed request. It is surfaced immediately for that task only.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsRetryable reports whether a worker should attempt err again. Anything
// not explicitly classified is treated as transient so a sloppy provider
// error can't burn a task on the first network blip.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// ClassifyHTTP maps a response status to the error taxonomy. Callers pass
// the op for the error message only.
func ClassifyHTTP(op string, status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return Fatal(fmt.Errorf("%s: auth rejected (status %d)", op, status))
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return Fatal(fmt.Errorf("%s: malformed request (status %d)", op, status))
	case status == http.StatusNotFound, status == http.StatusGone:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return Transient(fmt.Errorf("%s: rate limited (status %d)", op, status))
	case status >= 500:
		return Transient(fmt.Errorf("%s: server error (status %d)", op, status))
	default:
		return Transient(fmt.Errorf("%s: unexpected status %d", op, status))
	}
}

// ClassifyNetErr wraps a transport-level error. Timeouts and connection
// failures are transient; context cancellation passes through untouched so
// shutdown is not mistaken for a provider failure.
func ClassifyNetErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return Transient(fmt.Errorf("%s: %w", op, err))
}
