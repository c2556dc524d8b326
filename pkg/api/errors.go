package api

import (
	"fmt"
	"net/http"
)

// ErrorType is the client-visible error category, using the vocabulary
// OpenAI-compatible clients expect.
type ErrorType string

const (
	ErrorTypeInvalidRequest   ErrorType = "invalid_request_error"
	ErrorTypeAuthentication   ErrorType = "authentication_error"
	ErrorTypePermissionDenied ErrorType = "permission_denied_error"
	ErrorTypeNotFound         ErrorType = "not_found_error"
	ErrorTypeRateLimit        ErrorType = "rate_limit_error"
	ErrorTypeServer           ErrorType = "server_error"
)

// APIError is a structured API error. Status is the HTTP status the error
// maps to; it is not part of the wire payload.
type APIError struct {
	Message string    `json:"message"`
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Code    string    `json:"code,omitempty"`

	Status int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatus returns the HTTP status code for the error, defaulting to 500
// for errors constructed without one.
func (e *APIError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// ErrorResponse wraps an APIError as the top-level error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewValidationError creates an error for a malformed or invalid request body.
func NewValidationError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewAuthenticationError creates an error for missing or invalid credentials.
func NewAuthenticationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeAuthentication,
		Code:    "invalid_api_key",
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewPermissionDeniedError creates an error for valid credentials lacking
// access to the requested resource.
func NewPermissionDeniedError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypePermissionDenied,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// NewNotFoundError creates an error for unknown routes or resources.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewPayloadTooLargeError creates an error for an attachment exceeding its
// size ceiling.
func NewPayloadTooLargeError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Code:    "request_entity_too_large",
		Message: message,
		Status:  http.StatusRequestEntityTooLarge,
	}
}

// NewUnsupportedMediaError creates an error for an attachment of a kind the
// backend cannot ingest.
func NewUnsupportedMediaError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Code:    "unsupported_media_type",
		Message: message,
		Status:  http.StatusUnsupportedMediaType,
	}
}

// NewDisallowedURLError creates an error for an attachment URL blocked by
// SSRF hardening.
func NewDisallowedURLError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   "attachments",
		Code:    "invalid_url",
		Message: "Disallowed attachment URL: " + message,
		Status:  http.StatusBadRequest,
	}
}

// NewUnprocessableError creates an error for a request the backend rejected
// as semantically invalid, typically a schema it cannot honor.
func NewUnprocessableError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Code:    "unprocessable_entity",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
	}
}

// NewRateLimitError creates an error for backend rate limiting.
func NewRateLimitError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeRateLimit,
		Code:    "rate_limit_exceeded",
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// NewServerError creates an error for internal failures. The message must not
// contain stack traces or secrets; callers log details separately.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServer,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}
