// Package errors defines the structured error types raised by the template
// pipeline. Every fatal condition of a build surfaces as one of the kinds
// below so callers can branch on it with errors.As.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents different categories of errors.
type ErrorKind string

const (
	ErrorKindSource   ErrorKind = "source"
	ErrorKindMinify   ErrorKind = "minify"
	ErrorKindBundle   ErrorKind = "bundle"
	ErrorKindIO       ErrorKind = "io"
	ErrorKindConfig   ErrorKind = "config"
	ErrorKindInternal ErrorKind = "internal"
)

// Error codes attached to the pipeline's fatal errors.
const (
	CodeSourceNotFound = "E_SOURCE_NOT_FOUND"
	CodeMinification   = "E_MINIFY"
	CodeDuplicateKey   = "E_DUPLICATE_KEY"
	CodeIO             = "E_IO"
	CodeConfig         = "E_CONFIG"
)

// BuildError is a structured error type with location context.
type BuildError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Path    string
	Line    int
	Cause   error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		location := e.Path
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on kind and code.
func (e *BuildError) Is(target error) bool {
	var t *BuildError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *BuildError) WithLocation(path string, line int) *BuildError {
	e.Path = path
	e.Line = line

	return e
}

// NewIOError creates an I/O error.
func NewIOError(message, path string, cause error) *BuildError {
	return &BuildError{
		Kind:    ErrorKindIO,
		Code:    CodeIO,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *BuildError {
	return &BuildError{
		Kind:    ErrorKindConfig,
		Code:    CodeConfig,
		Message: message,
		Cause:   cause,
	}
}

// SourceNotFoundError reports a template root that does not exist.
type SourceNotFoundError struct {
	Root  string
	Cause error
}

func (e *SourceNotFoundError) Error() string {
	return e.BuildError().Error()
}

func (e *SourceNotFoundError) Unwrap() error {
	return e.Cause
}

// BuildError converts the error to its generic structured form.
func (e *SourceNotFoundError) BuildError() *BuildError {
	return &BuildError{
		Kind:    ErrorKindSource,
		Code:    CodeSourceNotFound,
		Message: "template root does not exist",
		Path:    e.Root,
		Cause:   e.Cause,
	}
}

// MinificationError reports markup that is not well-formed enough to minify.
type MinificationError struct {
	Path    string
	Line    int
	Message string
}

func (e *MinificationError) Error() string {
	return e.BuildError().Error()
}

// BuildError converts the error to its generic structured form.
func (e *MinificationError) BuildError() *BuildError {
	return &BuildError{
		Kind:    ErrorKindMinify,
		Code:    CodeMinification,
		Message: e.Message,
		Path:    e.Path,
		Line:    e.Line,
	}
}

// DuplicateTemplateKeyError reports two templates resolving to one cache key.
type DuplicateTemplateKeyError struct {
	Key        string
	FirstPath  string
	SecondPath string
}

func (e *DuplicateTemplateKeyError) Error() string {
	return e.BuildError().Error()
}

// BuildError converts the error to its generic structured form.
func (e *DuplicateTemplateKeyError) BuildError() *BuildError {
	return &BuildError{
		Kind:    ErrorKindBundle,
		Code:    CodeDuplicateKey,
		Message: fmt.Sprintf("duplicate template key %q: %s and %s", e.Key, e.FirstPath, e.SecondPath),
	}
}

// IsSourceNotFound checks if an error is a missing template root.
func IsSourceNotFound(err error) bool {
	var target *SourceNotFoundError
	return errors.As(err, &target)
}

// IsMinification checks if an error came from the minifier.
func IsMinification(err error) bool {
	var target *MinificationError
	return errors.As(err, &target)
}

// IsDuplicateKey checks if an error is a cache key collision.
func IsDuplicateKey(err error) bool {
	var target *DuplicateTemplateKeyError
	return errors.As(err, &target)
}

// Code extracts the error code from any pipeline error, or "" when the
// error carries none.
func Code(err error) string {
	var coded interface{ BuildError() *BuildError }
	if errors.As(err, &coded) {
		return coded.BuildError().Code
	}

	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}

	return ""
}
