// Package errors provides unified error handling for the identity core.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807 and Google AIP-193.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---
//
// Constructors take the message callers want surfaced; underlying causes
// and structured context attach via WithCause and WithDetail.

// Timeout creates a new AppError for a request that timed out.
func Timeout(message string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: message,
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(message string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: message,
		HTTPStatus: http.StatusNotFound, Retryable: false,
	}
}

// AlreadyExists creates a new AppError for a resource that already exists.
func AlreadyExists(message string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: message,
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// Conflict creates a new AppError for a conflict with the current state of the resource.
func Conflict(message string) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: message,
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidConfig creates a new AppError for an invalid configuration value.
func InvalidConfig(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: message,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Forbidden creates a new AppError for forbidden access.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{
		Code: ErrCodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// TokenExpired creates a new AppError for an expired authentication token.
func TokenExpired(message string) *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: message,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidToken creates a new AppError for an invalid authentication token.
func InvalidToken(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: message,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// TokenRevoked creates a new AppError for a revoked authentication token.
// Revocation is terminal: the client must re-authenticate.
func TokenRevoked(message string) *AppError {
	return &AppError{
		Code: ErrCodeTokenRevoked, Message: message,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// MFARequired creates a new AppError signalling that login needs a second
// factor. Clients dispatch on the MFA_REQUIRED code to prompt for a code.
func MFARequired(message string) *AppError {
	return &AppError{
		Code: ErrCodeMFARequired, Message: message,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidMFACode creates a new AppError for a rejected MFA code.
func InvalidMFACode(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidMFACode, Message: message,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(message string) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: message,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// StoreError creates a new AppError for a backing store error.
func StoreError(message string) *AppError {
	return &AppError{
		Code: ErrCodeStoreError, Message: message,
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(message string) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: message,
		HTTPStatus: http.StatusBadGateway, Retryable: true,
	}
}
