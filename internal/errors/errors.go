package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinel errors compare equal to derived ones.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrInvalidRecurrence = &AppError{Code: "MED_001", Message: "invalid medicine definition"}
	ErrInvalidTransition = &AppError{Code: "DOSE_001", Message: "invalid dose transition"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Invalid builds a configuration error for a rejected medicine write.
func Invalid(format string, args ...interface{}) *AppError {
	return New(ErrInvalidRecurrence.Code, fmt.Sprintf(format, args...))
}

// NotFound builds a not-found error naming the missing resource.
func NotFound(kind, id string) *AppError {
	return New(ErrNotFound.Code, fmt.Sprintf("%s not found: %s", kind, id))
}

// Transition builds an invalid-transition error.
func Transition(from, to string) *AppError {
	return New(ErrInvalidTransition.Code, fmt.Sprintf("cannot move dose from %s to %s", from, to))
}
