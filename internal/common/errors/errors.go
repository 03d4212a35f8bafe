// Package errors provides the standardized error taxonomy for the portal client.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeDuplicateApplication  ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeProgramClosed         ErrorCode = "PROGRAM_CLOSED"
	ErrCodeApplicationCreate     ErrorCode = "APPLICATION_CREATE_FAILED"
	ErrCodeDocumentUploadFailed  ErrorCode = "DOCUMENT_UPLOAD_FAILED"
	ErrCodeNetworkError          ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout               ErrorCode = "TIMEOUT_ERROR"
	ErrCodeAuthenticationFailed  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeMalformedResponse     ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeSubmissionInFlight    ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeSessionNotInitialized ErrorCode = "SESSION_NOT_INITIALIZED"
)

// StandardError represents a structured portal error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    map[string]string      `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether err can meaningfully be retried by the caller.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// NewValidationError creates a non-retryable field validation error.
// fields maps field names to their first violation message.
func NewValidationError(details string, fields map[string]string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submitted data failed validation",
		Details:   details,
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateApplicationError creates a non-retryable conflict error for a
// program the caller has already applied to.
func NewDuplicateApplicationError(programID int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   "You have already applied to this program",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"programId": programID},
		Timestamp: time.Now().UTC(),
	}
}

// NewProgramClosedError creates a non-retryable error for an inactive program
// or one whose application deadline has passed.
func NewProgramClosedError(programID int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgramClosed,
		Message:   "This program is not currently accepting applications",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"programId": programID},
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationCreateError creates an error for a failed create call.
func NewApplicationCreateError(err error, retryable bool) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationCreate,
		Message:   "Failed to create application record",
		Details:   err.Error(),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentUploadError creates a retryable per-document upload error.
func NewDocumentUploadError(documentType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentUploadFailed,
		Message:   "Document upload failed",
		Details:   fmt.Sprintf("documentType: %s, error: %s", documentType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable transport-level error.
func NewNetworkError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   fmt.Sprintf("Network error during %s", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation '%s' timed out", operation),
		Details:   "call exceeded its timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
// The session token is expected to be cleared before this is surfaced.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationFailed,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a non-retryable error for a server payload
// the client could not decode or that failed shape validation.
func NewMalformedResponseError(operation, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   fmt.Sprintf("Unexpected server response during %s", operation),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError creates a non-retryable guard error for a second
// Submit issued while one is already running.
func NewSubmissionInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A submission is already in progress",
		Details:   "wait for the current submission to resolve before retrying",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotInitializedError creates an error for API calls issued without
// an authenticated session.
func NewSessionNotInitializedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotInitialized,
		Message:   "No active session",
		Details:   "log in before calling authenticated endpoints",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// duplicateMarkers are the substrings the backend is known to place in a
// conflict response body when the caller already holds an active application.
var duplicateMarkers = []string{
	"already applied",
	"already exists",
	"duplicate",
}

// IsDuplicateMarker reports whether a server error body carries the backend's
// "already applied" conflict marker.
func IsDuplicateMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range duplicateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// programClosedMarkers are the substrings the backend places in a rejection
// body when the program is inactive or past its deadline.
var programClosedMarkers = []string{
	"not accepting applications",
	"deadline has passed",
	"program is closed",
}

// IsProgramClosedMarker reports whether a server error body carries the
// backend's closed-program rejection marker.
func IsProgramClosedMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range programClosedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// GetErrorCategory returns the broad category of an error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "PROGRAM"):
		return "CONFLICT"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "TIMEOUT"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "SESSION"):
		return "AUTH"
	case strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "DOCUMENT"):
		return "DOCUMENT"
	default:
		return "OTHER"
	}
}
