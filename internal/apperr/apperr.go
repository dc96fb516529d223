// Package apperr holds the application error taxonomy. Services and
// handlers raise these; the HTTP layer translates them to statuses in
// one place.
package apperr

import "fmt"

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindValidation
	KindUnauthorized
	KindForbidden
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}
