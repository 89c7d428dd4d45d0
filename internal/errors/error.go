package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryTransport  Category = "transport"
	CategoryDOM        Category = "dom"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// Error is a structured error with a code, detail and an optional fix hint.
type Error struct {
	// Code is a unique error identifier (e.g., "C101").
	Code string

	// Category is the error type (validation, transport, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Field names the form field involved, if any.
	Field string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithField records the form field the error refers to.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// IsCategory reports whether err (or anything it wraps) is an Error of
// the given category.
func IsCategory(err error, category Category) bool {
	var ce *Error
	if !stderrors.As(err, &ce) {
		return false
	}
	return ce.Category == category
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code string) bool {
	var ce *Error
	if !stderrors.As(err, &ce) {
		return false
	}
	return ce.Code == code
}
