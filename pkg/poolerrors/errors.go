// Package poolerrors provides structured error handling for the pool library
// with rich context, stack traces, and error categorization. It enables
// consistent error handling patterns across the entire codebase.
//
// # Overview
//
// The poolerrors package extends Go's standard error handling with:
//   - Error categorization through ErrorType
//   - Structured context with key-value details
//   - Automatic stack trace capture
//   - Error wrapping with cause preservation
//
// # Basic Usage
//
//	// Create a new error
//	err := poolerrors.New(poolerrors.ErrorTypeConfig, "factory must not be nil")
//
//	// Add context
//	err = err.WithDetail("maximum_size", cfg.MaximumSize)
//
//	// Wrap existing errors
//	if err := reinit(obj); err != nil {
//	    return poolerrors.Wrap(err, poolerrors.ErrorTypeReinitialize, "reinitialize failed")
//	}
//
// # Error Types
//
// Errors are categorized by type, which maps directly onto the pool's
// failure taxonomy: configuration errors are fatal to pool construction,
// validation and disposed-state errors are surfaced synchronously to the
// caller, conflict errors are the strict duplicate-return diagnostic, and
// reinitialize errors carry failures raised by user-supplied reset hooks.
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Create new
// instances or use WithDetail before sharing across goroutines.
package poolerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error, used for error handling
// strategies and diagnostics.
type ErrorType string

const (
	// ErrorTypeInternal represents internal library errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents invalid pool policy configuration
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeValidation represents invalid arguments passed to pool operations
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeDisposed represents operations invoked on a closed pool
	ErrorTypeDisposed ErrorType = "disposed"
	// ErrorTypeConflict represents a duplicate return detected in strict mode
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeReinitialize represents failures raised by a user-supplied reinitializer
	ErrorTypeReinitialize ErrorType = "reinitialize"
)

// Error represents a structured error with context, providing rich debugging
// information and enabling sophisticated error handling strategies.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error that caused this error
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack, capturing
// the function name, file path, and line number for debugging.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted error message
// that includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling compatibility with errors.Is
// and errors.As for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error, providing additional context
// for debugging. This method can be chained for adding multiple details.
//
// Example:
//
//	err := poolerrors.New(poolerrors.ErrorTypeConfig, "invalid maximum size").
//	    WithDetail("maximum_size", size).
//	    WithDetail("pool", name)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, automatically
// capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the original
// error as the cause. If the error is already a structured Error, its stack
// trace is preserved. Returns nil if the input error is nil.
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

// IsType checks if the error is of the given type, useful for error handling
// strategies and conditional logic based on error categories.
//
// Example:
//
//	if poolerrors.IsType(err, poolerrors.ErrorTypeDisposed) {
//	    // Pool is gone; fall back to direct allocation
//	    return newValue()
//	}
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top. This is used
// internally to record the call stack at error creation points.
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
