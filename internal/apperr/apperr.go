package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport boundary. Handlers never map
// errors to status codes themselves; the api layer translates Kind once.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidID
	KindUnauthorized
	KindNotFound
)

// Error is the service-layer error carried up to the api boundary.
// Fields holds per-field validation messages when Kind is KindValidation.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// StatusCode maps the taxonomy to HTTP.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindInvalidID:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation Error", Fields: fields}
}

func ValidationMsg(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func InvalidID(raw string) *Error {
	return &Error{Kind: KindInvalidID, Message: fmt.Sprintf("invalid task id: %q", raw)}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
}

// NotFound covers both "does not exist" and "not owned by the caller";
// the two are deliberately indistinguishable to the client.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: "Task not found"}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", cause: cause}
}

// From returns err as *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
