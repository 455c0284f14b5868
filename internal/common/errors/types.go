package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrTypeValidation represents malformed or missing request fields
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeDispatch represents queue producer failures
	ErrTypeDispatch ErrorType = "dispatch"
	// ErrTypeExternalCall represents failed calls to remote services
	ErrTypeExternalCall ErrorType = "external_call"
	// ErrTypeCache represents cache read or write failures
	ErrTypeCache ErrorType = "cache"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeConnection represents connection-related errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// Machine-readable error kinds returned to API callers.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeQueue        = "ERROR_IN_QUEUE_PRODUCER"
	CodeExternalCall = "EXTERNAL_SERVICE_CALL_ERROR"
	CodeCache        = "CACHE_ERROR"
	CodeConfig       = "CONFIGURATION_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"-"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Code:    CodeValidation,
		Message: msg,
	}
}

// DispatchError wraps a queue producer failure
func DispatchError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeDispatch,
		Code:    CodeQueue,
		Message: msg,
		Cause:   cause,
	}
}

// ExternalCallError describes a failed call to a remote service. statusCode is
// zero when no HTTP response was received. body is the upstream response body,
// or the transport error text when there was no response.
func ExternalCallError(statusCode int, body string, cause error) *AppError {
	return &AppError{
		Type:       ErrTypeExternalCall,
		Code:       CodeExternalCall,
		Message:    body,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// CacheError creates a new cache error
func CacheError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeCache,
		Code:    CodeCache,
		Message: msg,
		Cause:   cause,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Code:    CodeConfig,
		Message: msg,
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Code:    CodeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Code:    CodeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := As(err)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}

// Kind returns the machine-readable code for err
func Kind(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok || appErr.Code == "" {
		return CodeInternal
	}
	return appErr.Code
}
