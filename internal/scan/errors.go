package scan

import (
	"errors"
	"fmt"
)

// Common scan errors
var (
	// ErrInvalidPDF is returned when the input is not a PDF document or
	// Document AI refuses it.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrProcessingFailed is returned when Document AI processing fails.
	ErrProcessingFailed = errors.New("document AI processing failed")

	// ErrNoLineItems is returned when no usable line item could be read
	// from the scan.
	ErrNoLineItems = errors.New("no line items found in scanned bill")

	// ErrInvalidCredentials is returned when Google Cloud credentials lack
	// the permissions Document AI needs.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrMissingCredentials is returned when no Google Cloud credentials are configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrInvalidConfiguration is returned when the processor configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrProcessorNotFound is returned when the configured processor does not exist.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when Document AI API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("Document AI API quota exceeded")

	// ErrDocumentTooLarge is returned when the PDF exceeds MaxDocumentSizeBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")
)

// ScanError wraps errors with context about a failed scan.
type ScanError struct {
	// Op is the operation that failed (e.g. "Scan", "ExtractDraft").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// ProcessorID is the Document AI processor used, when known.
	ProcessorID string
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scan: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	if e.ProcessorID != "" {
		return fmt.Sprintf("scan: %s failed (processor: %s): %v", e.Op, e.ProcessorID, e.Err)
	}
	return fmt.Sprintf("scan: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *ScanError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewScanError creates a ScanError.
func NewScanError(op string, err error, details string) *ScanError {
	return &ScanError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapScanError wraps err as a ScanError if it isn't already one.
func WrapScanError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return err
	}

	return NewScanError(op, err, details)
}
