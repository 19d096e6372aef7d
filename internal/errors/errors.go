// Package errors provides the structured error type (SetupError) used by every
// pipeline stage for category-based classification and exit code mapping.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a setup error for classification.
type ErrorCategory string

const (
	// Host and tooling errors
	CategoryEnvironment ErrorCategory = "environment"
	CategoryInstall     ErrorCategory = "install"

	// Configuration document errors
	CategoryParse     ErrorCategory = "parse"
	CategoryTransform ErrorCategory = "transform"
	CategoryIO        ErrorCategory = "io"

	// Trial build errors
	CategoryBuildValidation ErrorCategory = "build_validation"

	// CLI and runtime errors
	CategoryValidation ErrorCategory = "validation"
	CategoryCanceled   ErrorCategory = "canceled"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// SetupError is a structured error with category, stage and context.
type SetupError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Stage    string        `json:"stage,omitempty"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SetupError
type ContextFields map[string]any

// Error implements the error interface
func (e *SetupError) Error() string {
	prefix := string(e.Category)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Category, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SetupError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SetupError) WithContext(key string, value any) *SetupError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithStage records the pipeline stage that produced the error.
func (e *SetupError) WithStage(stage string) *SetupError {
	e.Stage = stage
	return e
}

// ContextString returns a string context value, or "" when absent.
func (e *SetupError) ContextString(key string) string {
	if e.Context == nil {
		return ""
	}
	s, _ := e.Context[key].(string)
	return s
}

// New creates a new SetupError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SetupError {
	return &SetupError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SetupError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SetupError {
	return &SetupError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As extracts the outermost SetupError from an error chain.
func As(err error) (*SetupError, bool) {
	var se *SetupError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCategory checks if an error chain contains a SetupError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := As(err); ok {
		return se.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SetupError
func GetCategory(err error) ErrorCategory {
	if se, ok := As(err); ok {
		return se.Category
	}
	return CategoryInternal
}
