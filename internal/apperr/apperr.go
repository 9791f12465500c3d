package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable error class; the API maps each one to an HTTP status.
type Code string

const (
	CodeInvalid      Code = "invalid"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal"
)

// AppError carries a code and the field/message pair shown to API clients.
type AppError struct {
	Code    Code
	Field   string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(code Code, field, message string) *AppError {
	return &AppError{Code: code, Field: field, Message: message}
}

func Wrap(err error, code Code, field, message string) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Err: err}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsCode(err error, code Code) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
