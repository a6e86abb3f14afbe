// Package apperr provides the structured error payloads returned by the
// bridge's run-scoped operations.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeWrongState      = "WRONG_STATE"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotAvailable    = "NOT_AVAILABLE"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodePolicyBlocked   = "POLICY_BLOCKED"
	CodeUnknownTool     = "UNKNOWN_TOOL"
	CodeInternal        = "INTERNAL"
)

// Error is the structured error type for bridge operations.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// MarshalJSON includes the cause message.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// New creates a new Error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message.
func Wrap(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns err's code, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// RunNotFound creates an error for an unknown run id.
func RunNotFound(runID string) *Error {
	return Newf(CodeNotFound, "run %s not found", runID).
		WithDetail("run_id", runID)
}

// WrongState creates an error naming the run's actual status.
func WrongState(runID, status, action string) *Error {
	return Newf(CodeWrongState, "cannot %s run %s: status is %s", action, runID, status).
		WithDetail("run_id", runID).
		WithDetail("status", status)
}

// InvalidArgument creates an error for a bad request field.
func InvalidArgument(field, reason string) *Error {
	return Newf(CodeInvalidArgument, "invalid %s: %s", field, reason).
		WithDetail("field", field)
}
