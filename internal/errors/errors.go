package errors

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
)

// Error codes for categorizing errors
const (
	ErrConfig     = "CONFIG"
	ErrMetric     = "METRIC"
	ErrConnection = "CONNECTION"
	ErrInternal   = "INTERNAL"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered for humans as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrInternal code.
func Wrap(err error, message string) *Error {
	return WrapWithCode(err, ErrInternal, message, "")
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
// The cause keeps a stack trace of where it was wrapped.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      errors.WithStackDepth(err, 1),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the message and cause on a single line, for log fields.
func (e *Error) Short() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var sysErr *Error
	if errors.As(err, &sysErr) {
		return sysErr.Code == code
	}
	return false
}

// Short renders any error on one line. Structured errors drop their
// suggestion and decoration; everything else uses Error().
func Short(err error) string {
	if err == nil {
		return ""
	}
	var sysErr *Error
	if errors.As(err, &sysErr) {
		return sysErr.Short()
	}
	return err.Error()
}

// ExitError carries a process exit code for a failure that has already been
// reported, for example as a JSON envelope. It renders as nothing.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode returns the code of an ExitError in err's chain.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if err != nil && errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// Render formats any error for the terminal. Structured errors render as
// Error does; anything else gets the same leading marker. Exit errors were
// already reported and render empty.
func Render(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := GetExitCode(err); ok {
		return ""
	}
	var sysErr *Error
	if errors.As(err, &sysErr) {
		return sysErr.Error()
	}
	return fmt.Sprintf("✗ %s\n", err.Error())
}

// AsError finds the first structured Error in err's chain.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}
