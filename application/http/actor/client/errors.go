package client

import (
	"http-client/application/http/semantic"
	"http-client/lib/fault"

	"github.com/pkg/errors"
)

// NetworkError is a transport failure while handling Request.
// It matches [fault.ErrNetwork].
type NetworkError struct {
	Request *semantic.Request
	cause   error
}

func newNetworkError(req *semantic.Request, cause error, msg string) *NetworkError {
	return &NetworkError{Request: req, cause: errors.Wrap(cause, msg)}
}

func (e *NetworkError) Error() string        { return "network error: " + e.cause.Error() }
func (e *NetworkError) Unwrap() error        { return e.cause }
func (e *NetworkError) Is(target error) bool { return target == fault.ErrNetwork }

// RequestError is a protocol or policy failure of Request.
// It matches [fault.ErrRequest].
type RequestError struct {
	Request *semantic.Request
	cause   error
}

func newRequestError(req *semantic.Request, format string, args ...any) *RequestError {
	return &RequestError{Request: req, cause: errors.Errorf(format, args...)}
}

func wrapRequestError(req *semantic.Request, cause error, msg string) *RequestError {
	return &RequestError{Request: req, cause: errors.Wrap(cause, msg)}
}

func (e *RequestError) Error() string        { return "request error: " + e.cause.Error() }
func (e *RequestError) Unwrap() error        { return e.cause }
func (e *RequestError) Is(target error) bool { return target == fault.ErrRequest }
