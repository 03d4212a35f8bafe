// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := NewProgramClosedError(7, "deadline passed")
	assert.Equal(t, ErrCodeProgramClosed, CodeOf(err))

	wrapped := fmt.Errorf("submit: %w", err)
	assert.Equal(t, ErrCodeProgramClosed, CodeOf(wrapped))

	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain error")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryable(NewNetworkError("op", fmt.Errorf("refused"))))
	assert.True(t, IsRetryable(NewTimeoutError("op")))
	assert.True(t, IsRetryable(NewDocumentUploadError("Resume", fmt.Errorf("reset"))))

	assert.False(t, IsRetryable(NewValidationError("bad", nil)))
	assert.False(t, IsRetryable(NewDuplicateApplicationError(7, "already applied")))
	assert.False(t, IsRetryable(NewProgramClosedError(7, "closed")))
	assert.False(t, IsRetryable(NewAuthenticationError("401")))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")))
}

func TestNewValidationError_CarriesFields(t *testing.T) {
	err := NewValidationError("rejected", map[string]string{
		"cover_letter": "too short",
	})

	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.Equal(t, "too short", err.Fields["cover_letter"])
	assert.False(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
}

func TestIsDuplicateMarker(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{body: `{"non_field_errors": ["You have already applied to this program"]}`, want: true},
		{body: `{"detail": "An application already exists"}`, want: true},
		{body: `{"detail": "Duplicate entry"}`, want: true},
		{body: `{"detail": "ALREADY APPLIED"}`, want: true},
		{body: `{"cover_letter": ["This field may not be blank."]}`, want: false},
		{body: ``, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDuplicateMarker(tt.body), "body: %s", tt.body)
	}
}

func TestIsProgramClosedMarker(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{body: `{"non_field_errors": ["This program is not accepting applications."]}`, want: true},
		{body: `{"detail": "The application deadline has passed"}`, want: true},
		{body: `{"detail": "PROGRAM IS CLOSED"}`, want: true},
		{body: `{"cover_letter": ["This field may not be blank."]}`, want: false},
		{body: ``, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsProgramClosedMarker(tt.body), "body: %s", tt.body)
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "CONFLICT", GetErrorCategory(ErrCodeDuplicateApplication))
	assert.Equal(t, "CONFLICT", GetErrorCategory(ErrCodeProgramClosed))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeNetworkError))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeTimeout))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeAuthenticationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeMalformedResponse))
}
