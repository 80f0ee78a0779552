package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryCLI        Category = "cli"
	CategoryTemplate   Category = "template"
	CategoryFilesystem Category = "filesystem"
	CategoryVCS        Category = "vcs"
	CategoryConfig     Category = "config"
)

// ScaffoldError is a structured error with the offending path, a hint and
// documentation.
type ScaffoldError struct {
	// Code is a unique error identifier (e.g., "E150").
	Code string

	// Category is the error type (cli, template, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the file or directory the error refers to, if any.
	Path string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ScaffoldError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ScaffoldError) Unwrap() error {
	return e.Wrapped
}

// WithPath records the file or directory involved.
func (e *ScaffoldError) WithPath(p string) *ScaffoldError {
	e.Path = p
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ScaffoldError) WithSuggestion(s string) *ScaffoldError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *ScaffoldError) WithDetail(d string) *ScaffoldError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ScaffoldError) Wrap(err error) *ScaffoldError {
	e.Wrapped = err
	return e
}

// New creates a ScaffoldError from a registered error code.
func New(code string) *ScaffoldError {
	template, ok := registry[code]
	if !ok {
		return &ScaffoldError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ScaffoldError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// FromError wraps a standard error in a ScaffoldError. Errors that already
// carry a code are returned as-is.
func FromError(err error, code string) *ScaffoldError {
	if err == nil {
		return nil
	}
	var se *ScaffoldError
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// As returns the first ScaffoldError in err's chain.
func As(err error) (*ScaffoldError, bool) {
	var se *ScaffoldError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the code of the first ScaffoldError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScaffoldError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	for err != nil {
		var se *ScaffoldError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Wrapped
	}
	return false
}
