package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeAuthUnavailable means no usable token exists and a refresh is
	// impossible or has not been attempted
	ErrTypeAuthUnavailable ErrorType = "auth_unavailable"
	// ErrTypeAuthExchange means the vendor rejected a code or refresh-token exchange
	ErrTypeAuthExchange ErrorType = "auth_exchange"
	// ErrTypeTransport represents timeouts and connection failures
	ErrTypeTransport ErrorType = "transport"
	// ErrTypeUpstream represents a non-2xx business response from the vendor
	ErrTypeUpstream ErrorType = "upstream"
	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

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

// AuthUnavailableError creates an error for operations attempted without a usable token
func AuthUnavailableError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeAuthUnavailable,
		Message: msg,
	}
}

// AuthExchangeError creates an error for rejected OAuth2 exchanges
func AuthExchangeError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeAuthExchange,
		Message: msg,
		Cause:   cause,
	}
}

// TransportError creates an error for timeouts and connection failures
func TransportError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeTransport,
		Message: msg,
		Cause:   cause,
	}
}

// UpstreamError creates an error carrying a verbatim non-2xx vendor response
func UpstreamError(statusCode int, body string) *AppError {
	return &AppError{
		Type:       ErrTypeUpstream,
		Message:    body,
		StatusCode: statusCode,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
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

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}

// HTTPStatus returns the status code carried by an upstream error, or 0
func HTTPStatus(err error) int {
	appErr, ok := err.(*AppError)
	if !ok {
		return 0
	}
	return appErr.StatusCode
}
