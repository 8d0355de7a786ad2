package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUpstream     ErrorCode = "upstream"
)

// ServiceError is the domain error returned by every service. Fields carries
// per-field validation detail; Cause is the underlying upstream failure.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewUpstreamError(msg string, cause error) error {
	return &ServiceError{Code: ErrorUpstream, Message: msg, Cause: cause}
}

// NewFieldError builds an invalid error with field-level detail. It returns
// nil when fields is empty so callers can return it unconditionally.
func NewFieldError(msg string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ServiceError{Code: ErrorInvalid, Message: msg, Fields: fields}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err is a ServiceError with the given code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
