// Package errors provides standardized error types and helpers for the redline codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrCorruptPackage indicates the document package is missing required
	// parts or cannot be parsed. Fatal: nothing is mutated after this.
	ErrCorruptPackage = errors.New("corrupt package")
	// ErrSpanNotFound indicates a finding's literal text could not be located
	// in its hinted chapter. Recoverable: the finding is dropped and reported.
	ErrSpanNotFound = errors.New("span not found")
	// ErrRoundtrip indicates a post-injection invariant was violated.
	// Fatal: the mutated bytes are discarded and the original returned.
	ErrRoundtrip = errors.New("roundtrip invariant violated")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// CorruptPackageError reports a document package that fails verification.
type CorruptPackageError struct {
	Part    string // Package part involved (e.g., "word/document.xml")
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *CorruptPackageError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("corrupt package: %s: %s", e.Part, e.Message)
	}
	return fmt.Sprintf("corrupt package: %s", e.Message)
}

func (e *CorruptPackageError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCorruptPackage, e.Err}
	}
	return []error{ErrCorruptPackage}
}

// SpanNotFoundError reports a finding whose literal text could not be
// resolved within its hinted chapter.
type SpanNotFoundError struct {
	AgentID string // Producer that reported the finding
	Chapter string // Chapter id the finding was hinted to
	Literal string // Literal text that could not be located (may be truncated)
	Reason  string // Why location failed (e.g., "below similarity threshold")
}

func (e *SpanNotFoundError) Error() string {
	lit := e.Literal
	if len(lit) > 40 {
		lit = lit[:40] + "..."
	}
	if e.Chapter != "" {
		return fmt.Sprintf("span not found in %s: %q: %s", e.Chapter, lit, e.Reason)
	}
	return fmt.Sprintf("span not found: %q: %s", lit, e.Reason)
}

func (e *SpanNotFoundError) Unwrap() error {
	return ErrSpanNotFound
}

// RoundtripError reports a violated post-injection invariant.
type RoundtripError struct {
	Invariant string // Which invariant failed (e.g., "visible character count")
	Detail    string // Before/after details
}

func (e *RoundtripError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("roundtrip invariant violated: %s: %s", e.Invariant, e.Detail)
	}
	return fmt.Sprintf("roundtrip invariant violated: %s", e.Invariant)
}

func (e *RoundtripError) Unwrap() error {
	return ErrRoundtrip
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XML", "JSON", "profile")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// Helper functions for creating common errors

// NewCorruptPackage creates a CorruptPackageError
func NewCorruptPackage(part, message string, err error) *CorruptPackageError {
	return &CorruptPackageError{
		Part:    part,
		Message: message,
		Err:     err,
	}
}

// NewSpanNotFound creates a SpanNotFoundError
func NewSpanNotFound(agentID, chapter, literal, reason string) *SpanNotFoundError {
	return &SpanNotFoundError{
		AgentID: agentID,
		Chapter: chapter,
		Literal: literal,
		Reason:  reason,
	}
}

// NewRoundtrip creates a RoundtripError
func NewRoundtrip(invariant, detail string) *RoundtripError {
	return &RoundtripError{
		Invariant: invariant,
		Detail:    detail,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
