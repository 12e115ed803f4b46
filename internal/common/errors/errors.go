// Package errors provides standardized error handling for the loan
// origination core.
package errors

import (
	goerrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Local validation (pre-network, never sent to the server)
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeDocumentMissing  ErrorCode = "DOCUMENT_MISSING"

	// Submission pipeline
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeBackendCreateFailed  ErrorCode = "BACKEND_CREATE_FAILED"
	ErrCodeBackendSaveFailed    ErrorCode = "BACKEND_SAVE_FAILED"
	ErrCodeDocumentUploadFailed ErrorCode = "DOCUMENT_UPLOAD_FAILED"
	ErrCodeSubmitFailed         ErrorCode = "SUBMIT_FAILED"

	// Store / persistence
	ErrCodeLoanNotFound       ErrorCode = "LOAN_NOT_FOUND"
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// Backend adapter
	ErrCodeBackendRequestFailed  ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeBackendResponseFailed ErrorCode = "BACKEND_RESPONSE_INVALID"

	// Notifications
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if goerrors.As(target, &se) {
		return se.Code == e.Code
	}
	return false
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var se *StandardError
	if goerrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// CodeOf extracts the error code, or empty when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if goerrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable required-field error.
func NewValidationFailedError(details string, missing interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Required fields are missing",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"missingFields": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentMissingError creates a non-retryable mandatory-document error.
func NewDocumentMissingError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentMissing,
		Message:   "Mandatory documents are missing",
		Details:   fmt.Sprintf("%d document slot(s) empty", len(missing)),
		Retryable: false,
		Metadata:  map[string]interface{}{"missingDocuments": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInProgressError creates a non-retryable re-entrancy error.
func NewSubmissionInProgressError(loanID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInProgress,
		Message:   "A submission for this loan is already in flight",
		Details:   fmt.Sprintf("loanId: %s", loanID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendCreateFailedError creates a retryable initial-create error.
func NewBackendCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendCreateFailed,
		Message:   "Creating the application record failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendSaveFailedError creates a retryable save error.
func NewBackendSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendSaveFailed,
		Message:   "Saving the application failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentUploadFailedError creates a retryable upload error.
func NewDocumentUploadFailedError(filename string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentUploadFailed,
		Message:   "Document upload failed",
		Details:   fmt.Sprintf("filename: %s, error: %s", filename, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmitFailedError creates a retryable status-transition error.
func NewSubmitFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmitFailed,
		Message:   "Submitting the application failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLoanNotFoundError creates a non-retryable missing-loan error.
func NewLoanNotFoundError(loanID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLoanNotFound,
		Message:   "Loan draft not found",
		Details:   fmt.Sprintf("loanId: %s", loanID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageUnavailableError creates a retryable persistence error.
func NewStorageUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnavailable,
		Message:   "Draft storage unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendRequestFailedError creates a retryable transport error.
func NewBackendRequestFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendRequestFailed,
		Message:   "Backend request failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendResponseError creates an error for a non-2xx backend reply.
// 5xx replies are retryable, 4xx are not.
func NewBackendResponseError(op string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendResponseFailed,
		Message:   "Backend rejected the request",
		Details:   fmt.Sprintf("operation: %s, status: %d", op, status),
		Retryable: status >= 500,
		Metadata: map[string]interface{}{
			"status": status,
			"body":   body,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
