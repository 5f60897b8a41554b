// Package errors provides structured error handling for Forklift
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents invalid generation or load parameters.
	// Never retryable; surfaced to the caller immediately.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeReference represents a foreign-key sample attempted against
	// an empty entity table. Never retryable; indicates misconfiguration.
	ErrorTypeReference ErrorType = "reference"
	// ErrorTypeIntegrity represents a dimension/fact join mismatch found
	// during transformation. Never retryable; halts the pipeline.
	ErrorTypeIntegrity ErrorType = "integrity"
	// ErrorTypeWrite represents a destination store rejecting a write.
	// The only class eligible for caller-directed retry.
	ErrorTypeWrite ErrorType = "write"
	// ErrorTypeTimeout represents a per-table write deadline expiring
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithTable records the table an invariant violation belongs to. Every
// reference, integrity and write error must carry one.
func (e *Error) WithTable(table string) *Error {
	return e.WithDetail("table", table)
}

// WithKey records the offending natural or surrogate key
func (e *Error) WithKey(key interface{}) *Error {
	return e.WithDetail("key", key)
}

// WithRowRange records the half-open row range [first, last) a failed
// write batch covered.
func (e *Error) WithRowRange(first, last int) *Error {
	return e.WithDetail("row_range", fmt.Sprintf("[%d,%d)", first, last))
}

// Table returns the table recorded on the error, or ""
func (e *Error) Table() string {
	if t, ok := e.Details["table"].(string); ok {
		return t
	}
	return ""
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Details: existingErr.Details,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable. Only destination
// write failures and write timeouts qualify; generation and transform
// errors indicate defects a retry cannot fix.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeWrite, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
