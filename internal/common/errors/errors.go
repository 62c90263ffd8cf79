// Package errors provides standardized error handling for the status
// pipeline and its HTTP surface.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeStatusNotFound  ErrorCode = "STATUS_NOT_FOUND"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeAuthEmailLookupFailed  ErrorCode = "AUTH_EMAIL_LOOKUP_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeStatusUpdateFailed     ErrorCode = "STATUS_UPDATE_FAILED"
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

// ==========================
// 2. Error Constructors
// ==========================

// NewProjectNotFoundError creates a non-retryable lookup error. The whole
// status change fails closed on this.
func NewProjectNotFoundError(projectID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectNotFound,
		Message:   "Project not found",
		Details:   fmt.Sprintf("projectId: %d", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable lookup error. A partially
// null author would leave the notification without a recipient address.
func NewProfileNotFoundError(profileID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Profile not found",
		Details:   fmt.Sprintf("profileId: %s", profileID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusNotFoundError creates a non-retryable catalog lookup error.
// Catalog lookup is exact-match on the integer code.
func NewStatusNotFoundError(statusCode int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatusNotFound,
		Message:   "Status catalog entry not found",
		Details:   fmt.Sprintf("statusCode: %d", statusCode),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRoleError creates a non-retryable role canonicalization error.
func NewInvalidRoleError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRole,
		Message:   "Unknown viewer role",
		Details:   fmt.Sprintf("role: %s", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(entity string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("entity: %s, error: %s", entity, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. Callers fall
// back to the database read.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Status catalog cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthEmailLookupFailedError creates a retryable auth provider error.
func NewAuthEmailLookupFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthEmailLookupFailed,
		Message:   "Auth provider email lookup failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusUpdateFailedError creates a retryable status write error.
func NewStatusUpdateFailedError(projectID int64, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatusUpdateFailed,
		Message:   "Project status write failed",
		Details:   fmt.Sprintf("projectId: %d, error: %s", projectID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError normalizes any error to a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsNotFound reports whether the error is one of the fail-closed lookup
// misses from the aggregation step.
func IsNotFound(err error) bool {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return false
	}
	switch stdErr.Code {
	case ErrCodeProjectNotFound, ErrCodeProfileNotFound, ErrCodeStatusNotFound:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
