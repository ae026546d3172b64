// internal/common/errors/errors.go

// Package errors provides standardized error handling for the verification
// pipeline and its HTTP surface.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeEvidenceMissing  ErrorCode = "EVIDENCE_MISSING"

	ErrCodeProviderFailed  ErrorCode = "PROVIDER_FAILED"
	ErrCodeProviderTimeout ErrorCode = "PROVIDER_TIMEOUT"

	ErrCodeExtractionRejected ErrorCode = "EXTRACTION_REJECTED"
	ErrCodeOCRFailed          ErrorCode = "OCR_FAILED"

	ErrCodeRegistryLookupFailed ErrorCode = "REGISTRY_LOOKUP_FAILED"
	ErrCodeRegistryNotFound     ErrorCode = "REGISTRY_NOT_FOUND"

	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeStorageFailed     ErrorCode = "STORAGE_FAILED"
	ErrCodeRecordNotFound    ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeUnauthorized       ErrorCode = "AUTHENTICATION_ERROR"
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

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEvidenceMissingError creates a non-retryable error for absent mandatory
// evidence attachments.
func NewEvidenceMissingError(names []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEvidenceMissing,
		Message:   "Mandatory evidence attachments missing",
		Details:   fmt.Sprintf("missing: %s", strings.Join(names, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError creates a retryable external provider error scoped to one
// stage.
func NewProviderError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderFailed,
		Message:   fmt.Sprintf("Provider call for stage '%s' failed", stage),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable timeout error scoped to one
// stage.
func NewProviderTimeoutError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   fmt.Sprintf("Provider call for stage '%s' exceeded its deadline", stage),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionRejectedError creates a non-retryable error carrying the
// authoritative missing-field list.
func NewExtractionRejectedError(missingFields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionRejected,
		Message:   "Mandatory document fields could not be extracted",
		Details:   fmt.Sprintf("missing fields: %s", strings.Join(missingFields, ", ")),
		Retryable: false,
		Metadata:  map[string]interface{}{"missingFields": missingFields},
		Timestamp: time.Now().UTC(),
	}
}

// NewOCRFailedError creates a retryable OCR provider error.
func NewOCRFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOCRFailed,
		Message:   "OCR text extraction failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryLookupFailedError creates a retryable company registry error.
func NewRegistryLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryLookupFailed,
		Message:   "Company registry lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryNotFoundError creates a non-retryable error for unknown tax IDs.
func NewRegistryNotFoundError(taxID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryNotFound,
		Message:   "Tax ID not found in company registry",
		Details:   fmt.Sprintf("taxId: %s", taxID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable store error. Persistence failures
// are logged and never change a computed verification result.
func NewPersistenceError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Verification record persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError creates a retryable evidence storage error.
func NewStorageError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Evidence upload failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "Verification record not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Completion notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable API authentication error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the response status for the API surface.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeEvidenceMissing, ErrCodeExtractionRejected:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRecordNotFound, ErrCodeRegistryNotFound:
		return http.StatusNotFound
	case ErrCodeProviderTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeProviderFailed, ErrCodeOCRFailed, ErrCodeRegistryLookupFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryable reports whether the error is a retryable StandardError.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "EVIDENCE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "OCR") || strings.Contains(codeStr, "REGISTRY"):
		return "PROVIDER"
	case strings.Contains(codeStr, "EXTRACTION"):
		return "EXTRACTION"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "RECORD"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "AUTHENTICATION"):
		return "AUTH"
	default:
		return "OTHER"
	}
}
