// ABOUTME: Call-time error taxonomy for the tool gateway pipeline.
// ABOUTME: CallError values carry a stable code the dispatcher flattens into results.

package gateway

import (
	"errors"
	"fmt"
)

// Code identifies a class of call failure. Codes are stable strings so they
// can be surfaced to clients and matched in logs.
type Code string

const (
	CodeParameterValidationFailed Code = "PARAMETER_VALIDATION_FAILED"
	CodePathParameterMissing      Code = "PATH_PARAMETER_MISSING"
	CodePathParameterInvalid      Code = "PATH_PARAMETER_INVALID"
	CodeInvalidToolConfig         Code = "INVALID_TOOL_CONFIG"
	CodeNetworkError              Code = "NETWORK_ERROR"
	CodeHTTPRequestFailed         Code = "HTTP_REQUEST_FAILED"
	CodeExecutionTimeout          Code = "EXECUTION_TIMEOUT"
	CodeAuthenticationFailed      Code = "AUTHENTICATION_FAILED"
	CodeRateLimitExceeded         Code = "RATE_LIMIT_EXCEEDED"
	CodeToolNotFound              Code = "TOOL_NOT_FOUND"
	CodeInternalError             Code = "INTERNAL_ERROR"
	CodeSerializationError        Code = "SERIALIZATION_ERROR"
	CodeTemplateError             Code = "TEMPLATE_ERROR"
	CodeAuthorizationFailed       Code = "AUTHORIZATION_FAILED"
	CodeValidationError           Code = "VALIDATION_ERROR"
)

// CallError is the single error type that crosses the gateway pipeline.
// It wraps an optional cause and carries a code for classification.
type CallError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	cause error
}

// Errorf creates a CallError with a formatted message.
func Errorf(code Code, format string, args ...any) *CallError {
	return &CallError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a CallError that wraps a cause for errors.Is/As chains.
func WrapError(code Code, cause error, format string, args ...any) *CallError {
	return &CallError{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.cause
}

// AsCallError converts any error into a CallError. Errors that are not
// already CallErrors become CodeInternalError.
func AsCallError(err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	return &CallError{Code: CodeInternalError, Message: err.Error(), cause: err}
}

// CodeOf returns the code of err, or CodeInternalError for foreign errors.
func CodeOf(err error) Code {
	return AsCallError(err).Code
}
