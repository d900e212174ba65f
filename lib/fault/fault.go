// Package fault defines the error kinds shared by every layer of the client.
//
// Errors are created with [github.com/pkg/errors] so they keep a stack trace,
// and every error returned by the client matches exactly one kind through
// [errors.Is].
package fault

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned for malformed input supplied by the caller.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRuntime is returned when an internal precondition does not hold,
	// such as writing to a read-only stream.
	ErrRuntime = errors.New("runtime error")
	// ErrNetwork is returned for transport-level failures.
	ErrNetwork = errors.New("network error")
	// ErrRequest is returned for protocol or policy failures of one request.
	ErrRequest = errors.New("request error")
)

func InvalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

func Runtime(format string, args ...any) error {
	return errors.Wrapf(ErrRuntime, format, args...)
}

// Kind reports which of the four kinds err belongs to.
// nil is returned for errors created outside of this module.
func Kind(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrRuntime, ErrNetwork, ErrRequest} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
