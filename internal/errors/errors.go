// Package errors provides a lightweight structured error type (AutodoxError)
// for category-based classification in the CLI and daemon.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of an autodox error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External tool integration errors
	CategoryDoxygen ErrorCategory = "doxygen"
	CategoryConvert ErrorCategory = "convert"
	CategoryGit     ErrorCategory = "git"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// AutodoxError is a structured error with category, severity, and context
type AutodoxError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for AutodoxError
type ContextFields map[string]any

// Error implements the error interface
func (e *AutodoxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *AutodoxError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AutodoxError) WithContext(key string, value any) *AutodoxError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithProject tags the error with the offending project name.
func (e *AutodoxError) WithProject(name string) *AutodoxError {
	return e.WithContext("project", name)
}

// Project returns the project name attached to the error, if any.
func (e *AutodoxError) Project() string {
	if e.Context == nil {
		return ""
	}
	if p, ok := e.Context["project"].(string); ok {
		return p
	}
	return ""
}

// Stderr returns captured tool output attached to the error, if any.
func (e *AutodoxError) Stderr() string {
	if e.Context == nil {
		return ""
	}
	if s, ok := e.Context["stderr"].(string); ok {
		return s
	}
	return ""
}

// New creates a new AutodoxError
func New(category ErrorCategory, severity ErrorSeverity, message string) *AutodoxError {
	return &AutodoxError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new AutodoxError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *AutodoxError {
	return &AutodoxError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ae, ok := err.(*AutodoxError); ok {
		return ae.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an AutodoxError
func GetCategory(err error) ErrorCategory {
	if ae, ok := err.(*AutodoxError); ok {
		return ae.Category
	}
	return CategoryInternal
}

// ConfigError creates a new configuration error
func ConfigError(message string) *AutodoxError {
	return &AutodoxError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// ValidationError creates a new validation error
func ValidationError(message string) *AutodoxError {
	return &AutodoxError{
		Category: CategoryValidation,
		Severity: SeverityError,
		Message:  message,
	}
}

// ToolError wraps an external tool failure, attaching captured stderr.
func ToolError(err error, category ErrorCategory, tool, stderr string) *AutodoxError {
	ae := &AutodoxError{
		Category: category,
		Severity: SeverityFatal,
		Message:  fmt.Sprintf("%s failed", tool),
		Cause:    err,
	}
	if stderr != "" {
		ae = ae.WithContext("stderr", stderr)
	}
	return ae
}
