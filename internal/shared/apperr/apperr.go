package apperr

import (
	"errors"
	"strings"
)

// Kind classifies a failure so transports can render it consistently.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInvalidOperation Kind = "invalid_operation"
	KindUnavailable      Kind = "unavailable"
	KindInternal         Kind = "internal_error"
)

// Sentinels for errors.Is checks. They only carry a kind.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
)

// FieldError is a single violated input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the structured failure returned by domain services.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || t.Err != nil || len(t.Fields) > 0 {
		return e == t
	}
	return e.Kind == t.Kind
}

func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }

func InvalidOperation(msg string) error {
	return &Error{Kind: KindInvalidOperation, Message: msg}
}

// Unavailable wraps a storage or collaborator failure.
func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// Validation builds a validation failure listing every violated field.
func Validation(fields ...FieldError) error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// Field is shorthand for a single FieldError.
func Field(field, message string) FieldError {
	return FieldError{Field: field, Message: message}
}

// KindOf returns the kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns the per-field violations carried by err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf returns the human-readable message carried by err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return ""
}
