// Package apperr holds the closed set of error kinds surfaced to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindStorage
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage_error"
	case KindInference:
		return "inference_error"
	}
	return "internal_error"
}

// Status is the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStorage:
		return http.StatusInternalServerError
	case KindInference:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

func Inference(msg string, err error) *Error {
	return &Error{Kind: KindInference, Message: msg, Err: err}
}

// KindOf reports the kind of err, or 0 when err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

func Is(err error, k Kind) bool { return KindOf(err) == k }

// Public returns the message that is safe to show a user. Storage failures
// and unclassified errors are reduced to a generic message.
func Public(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "internal error"
	}
	if ae.Kind == KindStorage {
		return ae.Message
	}
	return ae.Error()
}
