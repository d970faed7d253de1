package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoImages     = errors.New("no images available")
	ErrInvalidImage = errors.New("invalid image")
)

// ServiceError is the single failure kind raised by the transformation
// pipeline and its collaborators: missing input files, missing credentials,
// non-success upstream responses, empty model output, missing fields in an
// otherwise successful response, and polling timeouts.
type ServiceError struct {
	Cause string
	Err   error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Cause + ": " + e.Err.Error()
	}
	return e.Cause
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ServiceFailure builds a ServiceError with a formatted cause.
func ServiceFailure(format string, args ...any) *ServiceError {
	return &ServiceError{Cause: fmt.Sprintf(format, args...)}
}

// WrapService builds a ServiceError that keeps the underlying error reachable
// through errors.Is and errors.As.
func WrapService(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Cause: fmt.Sprintf(format, args...), Err: err}
}

// IsServiceError reports whether err is (or wraps) a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
