// Package errs defines the error taxonomy shared by every service layer.
// Callers classify failures with errors.Is against the sentinel kinds and
// read the stable machine code from *Error when present.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	ErrInternal   = errors.New("internal")   // 500
)

// Error carries a stable machine-readable code alongside the human message.
// Field is set for validation failures that concern a single input field.
type Error struct {
	kind    error
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.Message)
}

func (e *Error) Unwrap() error { return e.kind }

func Validationf(code, field, format string, args ...any) *Error {
	return &Error{kind: ErrValidation, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(code, format string, args ...any) *Error {
	return &Error{kind: ErrNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(code, format string, args ...any) *Error {
	return &Error{kind: ErrConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps a storage or transport failure. The message is safe to
// surface; the underlying error stays in the logs only.
func Internalf(code, format string, args ...any) *Error {
	return &Error{kind: ErrInternal, Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts the coded error if err carries one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Code returns the machine code of err, or "" when err carries none.
func Code(err error) string {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
