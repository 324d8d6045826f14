package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so transports can pick a response shape.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindUnauthorized
)

var kindNames = map[Kind]string{
	KindInternal:     "internal",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
	KindValidation:   "validation",
	KindUnauthorized: "unauthorized",
}

var kind2http = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindValidation:   http.StatusBadRequest,
	KindUnauthorized: http.StatusForbidden,
	KindInternal:     http.StatusInternalServerError,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is the typed outcome returned by engine operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.err != nil {
		s += fmt.Sprintf(": %s", e.err)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches on kind and code so sentinel errors work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// HTTPStatus maps the kind to a response status.
func (e *Error) HTTPStatus() int {
	if s, ok := kind2http[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.err = err
	return &cp
}

// WithMessagef returns a copy of e with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(KindUnauthorized, code, message)
}

// Internal wraps an infrastructure failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: "internal server error", err: err}
}

// Convert returns err as *Error, treating anything untyped as internal.
func Convert(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf reports the kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	return Convert(err).Kind
}
