// Package errors provides standardized error handling for the SSO
// authority.
//
// This package implements a consistent error format across the HTTP and
// RPC surfaces:
//   - Structured error responses with machine-readable error codes
//   - Automatic HTTP status code mapping
//   - Optional error details for debugging
//
// JSON Response Format:
//
//	{
//	  "error": true,
//	  "message": "invalid email or password",
//	  "error_code": "InvalidCredentials",
//	  "details": "",
//	  "timestamp": "2026-07-29T10:00:00Z"
//	}
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError represents a standardized application error with HTTP context.
type AppError struct {
	// Code is one of the error-kind constants below (e.g.
	// "InvalidCredentials", "AppNotPermitted").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Details provides additional context for debugging (optional).
	Details string `json:"details,omitempty"`

	// StatusCode is the HTTP status code to return. Not serialized;
	// callers read it directly to set the response status.
	StatusCode int `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorResponse is the wire envelope returned to callers of both the HTTP
// and RPC surfaces.
type ErrorResponse struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Error-kind constants. These are the only codes the system emits; every
// handler maps its failure onto one of them before responding.
const (
	CodeInvalidCredentials        = "InvalidCredentials"
	CodeInvalidToken              = "InvalidToken"
	CodeExpiredToken              = "ExpiredToken"
	CodeWrongType                 = "WrongType"
	CodeUserNotRegistered         = "UserNotRegistered"
	CodeAppNotFound               = "AppNotFound"
	CodeAppNotPermitted           = "AppNotPermitted"
	CodeAlreadyLoggedInElsewhere  = "AlreadyLoggedInElsewhere"
	CodeValidationError           = "ValidationError"
	CodeConflict                  = "Conflict"
	CodeNotFound                  = "NotFound"
	CodeInternal                  = "Internal"
)

// New creates a new AppError with the status code implied by its code.
func New(code string, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusForCode(code),
	}
}

// NewWithDetails creates a new AppError with details.
func NewWithDetails(code string, message string, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusForCode(code),
	}
}

// Wrap wraps an existing error with an AppError, carrying its message as
// Details.
func Wrap(code string, message string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewWithDetails(code, message, details)
}

func statusForCode(code string) int {
	switch code {
	case CodeInvalidCredentials, CodeInvalidToken, CodeExpiredToken, CodeWrongType, CodeUserNotRegistered:
		return http.StatusUnauthorized
	case CodeAppNotPermitted, CodeAlreadyLoggedInElsewhere:
		return http.StatusForbidden
	case CodeAppNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeValidationError:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ToResponse converts an AppError to the wire envelope, stamping the
// current time.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:     true,
		Message:   e.Message,
		ErrorCode: e.Code,
		Details:   e.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Common error constructors, one per error kind in spec.md's taxonomy.

func InvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "invalid email or password")
}

func InvalidToken() *AppError {
	return New(CodeInvalidToken, "invalid authentication token")
}

func ExpiredToken() *AppError {
	return New(CodeExpiredToken, "authentication token has expired")
}

func WrongType(want, got string) *AppError {
	return NewWithDetails(CodeWrongType, "unexpected token type", fmt.Sprintf("want %s, got %s", want, got))
}

func UserNotRegistered() *AppError {
	return New(CodeUserNotRegistered, "no account is registered for this identity")
}

func AppNotFound(code string) *AppError {
	return New(CodeAppNotFound, fmt.Sprintf("application %q not found or inactive", code))
}

func AppNotPermitted(code string) *AppError {
	return New(CodeAppNotPermitted, fmt.Sprintf("user is not permitted to access application %q", code))
}

func AlreadyLoggedInElsewhere() *AppError {
	return New(CodeAlreadyLoggedInElsewhere, "already logged in on another device")
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Internal(err error) *AppError {
	return Wrap(CodeInternal, "internal server error", err)
}
