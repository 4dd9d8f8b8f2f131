package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error independently of transport. Handlers map
// kinds onto HTTP status codes at the edge; repos and services only
// ever deal in kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func Validation(code string, err error) *Error {
	return New(KindValidation, code, err)
}

func Validationf(code, format string, args ...any) *Error {
	return New(KindValidation, code, fmt.Errorf(format, args...))
}

func NotFound(code string, err error) *Error {
	return New(KindNotFound, code, err)
}

func NotFoundf(code, format string, args ...any) *Error {
	return New(KindNotFound, code, fmt.Errorf(format, args...))
}

func Conflict(code string, err error) *Error {
	return New(KindConflict, code, err)
}

func Conflictf(code, format string, args ...any) *Error {
	return New(KindConflict, code, fmt.Errorf(format, args...))
}

func Unauthorized(code string, err error) *Error {
	return New(KindUnauthorized, code, err)
}

func Unauthorizedf(code, format string, args ...any) *Error {
	return New(KindUnauthorized, code, fmt.Errorf(format, args...))
}

func Forbidden(code string, err error) *Error {
	return New(KindForbidden, code, err)
}

func Forbiddenf(code, format string, args ...any) *Error {
	return New(KindForbidden, code, fmt.Errorf(format, args...))
}

func Unavailable(code string, err error) *Error {
	return New(KindUnavailable, code, err)
}

// KindOf walks the error chain and returns the kind of the first
// *Error it finds, or KindUnknown when none is present.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// CodeOf returns the machine-readable code of the first *Error in the
// chain, or "" when none is present.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsUnavailable(err error) bool  { return KindOf(err) == KindUnavailable }
