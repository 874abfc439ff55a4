// Package errors provides centralized error definitions and error handling utilities
// for daylog. It defines the sentinel errors of the log sink, typed errors that carry
// file context, and helpers to classify them.
//
// # Error Types
//
// Sentinel errors name a condition:
//   - ErrLogsDirUnavailable, ErrLogFileUnwritable, ErrVersionUnavailable: the writer cannot start
//   - ErrCorruptRecord: a log file contains a record that cannot be decoded
//   - ErrWriterStopped, ErrNotInitialized: lifecycle misuse or failure
//
// Typed errors add context:
//   - InitError: writer construction failed for a path
//   - CorruptFileError: a log file failed to decode at a given line
//   - StoreError: a filesystem operation on the logs directory failed
//
// # Usage
//
//	err := errors.NewInitError("cannot create logs directory", dir, errors.ErrLogsDirUnavailable)
//
//	if errors.Is(err, errors.ErrLogsDirUnavailable) { ... }
//
//	var corrupt *errors.CorruptFileError
//	if errors.As(err, &corrupt) {
//	    fmt.Println(corrupt.Path, corrupt.Line)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Initialization sentinel errors
var (
	// ErrLogsDirUnavailable indicates that the logs directory could not be created.
	ErrLogsDirUnavailable = New("logs directory unavailable")
	// ErrLogFileUnwritable indicates that the day's log file cannot be opened for append.
	ErrLogFileUnwritable = New("log file not writable")
	// ErrVersionUnavailable indicates that the application version could not be determined.
	ErrVersionUnavailable = New("application version unavailable")
)

// Read-side sentinel errors
var (
	// ErrCorruptRecord indicates that a record in a log file cannot be decoded.
	ErrCorruptRecord = New("corrupt log record")
)

// Lifecycle sentinel errors
var (
	// ErrWriterStopped indicates that the writer has stopped and no longer persists records.
	ErrWriterStopped = New("log writer stopped")
	// ErrNotInitialized indicates that logging has not been initialized.
	ErrNotInitialized = New("logging not initialized")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message string
	cause   error
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Typed Errors
// -----------------------------------------------------------------------------

// InitError reports that the log writer could not be constructed.
//
// Example:
//
//	err := errors.NewInitError("cannot open log file", path, errors.ErrLogFileUnwritable)
//	fmt.Println(err) // "init error [path=/data/logs/1-01-2026.log]: cannot open log file: log file not writable"
type InitError struct {
	baseError
	Path string
}

// NewInitError creates a new InitError.
func NewInitError(message, path string, cause error) *InitError {
	return &InitError{
		baseError: baseError{message: message, cause: cause},
		Path:      path,
	}
}

// Error returns the formatted error message.
func (e *InitError) Error() string {
	prefix := "init error"
	if e.Path != "" {
		prefix = fmt.Sprintf("init error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InitError) Is(target error) bool {
	if _, ok := target.(*InitError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CorruptFileError reports that decoding a log file stopped at a malformed record.
// Decoded is the number of records that were read successfully before Line.
type CorruptFileError struct {
	baseError
	Path    string
	Line    int
	Decoded int
	Detail  error
}

// NewCorruptFileError creates a new CorruptFileError wrapping ErrCorruptRecord.
func NewCorruptFileError(line, decoded int, detail error) *CorruptFileError {
	return &CorruptFileError{
		baseError: baseError{message: "cannot decode record", cause: ErrCorruptRecord},
		Line:      line,
		Decoded:   decoded,
		Detail:    detail,
	}
}

// WithPath adds the file path to the error context.
func (e *CorruptFileError) WithPath(path string) *CorruptFileError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *CorruptFileError) Error() string {
	ctx := fmt.Sprintf("line=%d", e.Line)
	if e.Path != "" {
		ctx = fmt.Sprintf("path=%s, %s", e.Path, ctx)
	}
	msg := fmt.Sprintf("corrupt log file [%s]: %s", ctx, e.message)
	if e.Detail != nil {
		return fmt.Sprintf("%s: %v", msg, e.Detail)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *CorruptFileError) Is(target error) bool {
	if _, ok := target.(*CorruptFileError); ok {
		return true
	}
	if e.Detail != nil && errors.Is(e.Detail, target) {
		return true
	}
	return e.baseError.Is(target)
}

// StoreError reports a failed filesystem operation in the logs directory.
//
// Example:
//
//	err := errors.NewStoreError("delete", path, os.ErrPermission)
//	fmt.Println(err) // "store error [op=delete, path=...]: permission denied"
type StoreError struct {
	baseError
	Op   string
	Path string
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, path string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{message: op + " failed", cause: cause},
		Op:        op,
		Path:      path,
	}
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	prefix := fmt.Sprintf("store error [op=%s", e.Op)
	if e.Path != "" {
		prefix += ", path=" + e.Path
	}
	prefix += "]"
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsCorrupt reports whether err was caused by a corrupt log record.
func IsCorrupt(err error) bool {
	return err != nil && Is(err, ErrCorruptRecord)
}

// IsInitFailure reports whether err prevented the writer from starting.
func IsInitFailure(err error) bool {
	if err == nil {
		return false
	}
	var initErr *InitError
	return As(err, &initErr)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to read log file")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to read %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
