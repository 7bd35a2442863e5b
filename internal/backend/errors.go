package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Backend failures. Every error returned by Client matches one of these
// (or a context error after caller cancellation) through errors.Is.
var (
	// ErrNetwork is returned when the backend cannot be reached or the
	// connection drops before a response is read.
	ErrNetwork = errors.New("billing backend unreachable")

	// ErrBackend is returned for any non-2xx response other than 404.
	ErrBackend = errors.New("billing backend returned an error")

	// ErrTimeout is returned when a request exceeds its time budget.
	ErrTimeout = errors.New("billing backend request timed out")

	// ErrMalformedResponse is returned when a 2xx body cannot be decoded or
	// lacks a field the client depends on.
	ErrMalformedResponse = errors.New("malformed billing backend response")

	// ErrNotFound is returned when a bill id does not exist.
	ErrNotFound = errors.New("bill not found")

	// ErrInvalidConfiguration is returned by NewClient for an unusable base URL.
	ErrInvalidConfiguration = errors.New("invalid billing backend configuration")
)

// RequestError wraps a backend failure with the operation that hit it.
type RequestError struct {
	// Op is the client operation, e.g. "CreateBill".
	Op string

	// Err is the sentinel or underlying error.
	Err error

	// StatusCode is the HTTP status when a response was received.
	StatusCode int

	// Details carries the backend message or the transport error text.
	Details string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Details != "":
		return fmt.Sprintf("backend: %s failed (status %d): %s: %v", e.Op, e.StatusCode, e.Details, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("backend: %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	case e.Details != "":
		return fmt.Sprintf("backend: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("backend: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRequestError creates a new RequestError.
func NewRequestError(op string, err error, details string) *RequestError {
	return &RequestError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapRequestError wraps err as a RequestError if it isn't already one.
func WrapRequestError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return err
	}

	return NewRequestError(op, err, details)
}

func statusError(op string, status int, details string) *RequestError {
	sentinel := ErrBackend
	if status == http.StatusNotFound {
		sentinel = ErrNotFound
	}
	return &RequestError{
		Op:         op,
		Err:        sentinel,
		StatusCode: status,
		Details:    details,
	}
}

// Retryable reports whether a failed read may be attempted again.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// UserMessage turns a backend failure into text fit for the form and CLI.
func UserMessage(err error) string {
	var reqErr *RequestError
	errors.As(err, &reqErr)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	case errors.Is(err, ErrTimeout):
		return "The billing server took too long to respond. Please try again"
	case errors.Is(err, ErrNetwork):
		return "Could not reach the billing server. Check your connection and try again"
	case errors.Is(err, ErrNotFound):
		return "The bill could not be found"
	case errors.Is(err, ErrMalformedResponse):
		return "The billing server sent an unexpected response"
	case errors.Is(err, ErrBackend) && reqErr != nil && reqErr.Details != "":
		return fmt.Sprintf("The billing server rejected the request: %s", reqErr.Details)
	case errors.Is(err, ErrBackend):
		return "The billing server rejected the request"
	}
	return "Something went wrong while talking to the billing server"
}
