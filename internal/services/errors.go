package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is the structured error type every adapter and service in
// this module raises. Type distinguishes the failure class so callers can
// branch without string matching.
type ServiceError struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for this error.
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Error type constants; StorageError and MetadataError identify which of the
// two backends failed so multi-step operations can report the failing step.
const (
	TypeStorageError  = "STORAGE_ERROR"
	TypeMetadataError = "METADATA_ERROR"
	TypeConflict      = "CONFLICT"
	TypeNotFound      = "NOT_FOUND"
	TypeValidation    = "VALIDATION_ERROR"
	TypeInternal      = "INTERNAL_ERROR"
)

// NewStorageError wraps a storage-provider failure. Provider detail is never
// swallowed; it rides along in Cause and the rendered message.
func NewStorageError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       TypeStorageError,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewMetadataError wraps a document-store failure.
func NewMetadataError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       TypeMetadataError,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewConflictError reports a business-rule violation, such as deleting the
// sole remaining revision or mutating another user's comment.
func NewConflictError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNotFoundError reports a referenced entity that does not exist.
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewValidationError reports invalid caller input.
func NewValidationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       TypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// GetServiceError extracts a ServiceError from err, or wraps it as internal.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return NewInternalError(err.Error())
}

// IsErrorType reports whether err carries the given error type.
func IsErrorType(err error, errorType string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Type == errorType
	}
	return false
}

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool {
	return IsErrorType(err, TypeNotFound)
}

// IsConflictError reports whether err is a conflict error.
func IsConflictError(err error) bool {
	return IsErrorType(err, TypeConflict)
}

// IsStorageError reports whether err came from the storage provider.
func IsStorageError(err error) bool {
	return IsErrorType(err, TypeStorageError)
}

// IsMetadataError reports whether err came from the document store.
func IsMetadataError(err error) bool {
	return IsErrorType(err, TypeMetadataError)
}

// WithDetails attaches context fields to the error.
func (e *ServiceError) WithDetails(details map[string]interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}
