// Package errors defines the coded errors shared by services and handlers.
//
// A service returns an *Error; the HTTP layer reads its Code to pick a status
// and the page layer picks a fragment:
//
//	switch {
//	case errors.Is(err, errors.ErrAlreadyExists):
//	case errors.Is(err, errors.ErrCatalogUnavailable):
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Is and As are re-exported so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Code is the machine-readable kind of an Error. It is sent to API clients.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeNotConfigured      Code = "NOT_CONFIGURED"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeValidation         Code = "VALIDATION"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeCatalogUnavailable Code = "CATALOG_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeNotConfigured:      http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeValidation:         http.StatusBadRequest,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeCatalogUnavailable: http.StatusBadGateway,
}

// HTTPStatus maps the code to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error carries a Code, a message safe to show users, optional per-field
// details, and the underlying cause for logs.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the response status for the error's code.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrNotConfigured      = &Error{Code: CodeNotConfigured, Message: "not configured"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrCatalogUnavailable = &Error{Code: CodeCatalogUnavailable, Message: "catalog unavailable"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NotConfigured reports that setup has not run.
func NotConfigured(msg string) *Error {
	return &Error{Code: CodeNotConfigured, Message: msg}
}

func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails attaches per-field messages, keyed by field name.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// CatalogUnavailable wraps a failed catalog call. The cause is kept for logs
// only; Message is what users see.
func CatalogUnavailable(err error) *Error {
	return &Error{Code: CodeCatalogUnavailable, Message: "could not reach the manga catalog", cause: err}
}

func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap gives err a code and a user-facing message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
