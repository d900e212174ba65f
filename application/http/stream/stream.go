// Package stream provides the byte sources and sinks used as message bodies.
//
// Every variant implements [Stream]. Capabilities differ per variant and are
// reported by Readable, Writable and Seekable; an operation the variant does
// not support fails with [fault.ErrRuntime].
package stream

import (
	"io"
	"strings"

	"http-client/application/http"
	"http-client/lib/fault"
	iolib "http-client/lib/io"

	"github.com/pkg/errors"
)

type Stream interface {
	// Read follows [io.Reader]: it returns io.EOF at end-of-data.
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// ReadN returns up to n bytes. Fewer bytes are returned only at end-of-data.
	ReadN(n int) ([]byte, error)
	// Contents reads everything left.
	Contents() ([]byte, error)
	EOF() bool
	// Size returns the total size. ok is false when it is unknown.
	Size() (size int64, ok bool)
	Tell() (int64, error)
	Rewind() error

	// Detach hands the underlying resource back to the caller.
	// The stream is unusable afterwards.
	Detach() io.Closer

	Readable() bool
	Writable() bool
	Seekable() bool
}

// PartHeaderCarrier is implemented by streams carrying headers of their own,
// which are written in front of the stream content inside a multipart body.
type PartHeaderCarrier interface {
	PartHeaders() []http.Field
}

// Named is implemented by streams having a client-visible file name.
type Named interface {
	ClientFilename() string
}

type partHeaders struct{ fields []http.Field }

func (ph *partHeaders) PartHeaders() []http.Field {
	clone := make([]http.Field, len(ph.fields))
	copy(clone, ph.fields)
	return clone
}

// SetPartHeader replaces the header with the same case-insensitive name.
func (ph *partHeaders) SetPartHeader(name, value string) {
	field := http.Field{Name: []byte(name), Value: []byte(value)}
	for idx, f := range ph.fields {
		if strings.EqualFold(string(f.Name), name) {
			ph.fields[idx] = field
			return
		}
	}
	ph.fields = append(ph.fields, field)
}

// ContentType returns the Content-Type part header, if any.
func (ph *partHeaders) ContentType() string {
	for _, f := range ph.fields {
		if strings.EqualFold(string(f.Name), "Content-Type") {
			return string(f.Value)
		}
	}
	return ""
}

type detachable struct{ detached bool }

func (d *detachable) check(op string) error {
	if d.detached {
		return fault.Runtime("cannot %s: stream is detached", op)
	}
	return nil
}

// asRuntime turns a failure of the underlying resource into a Runtime error.
func asRuntime(err error, op string) error {
	if err == nil || fault.Kind(err) != nil {
		return err
	}
	return errors.Wrapf(fault.ErrRuntime, "cannot %s: %s", op, err)
}

func readN(r io.Reader, n int) ([]byte, error) {
	b, err := iolib.ReadUpTo(r, n)
	if err != nil {
		return nil, asRuntime(err, "read from stream")
	}
	return b, nil
}

func readAll(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, asRuntime(err, "get contents from stream")
	}
	return b, nil
}

func errNotWritable() error { return fault.Runtime("stream does not support writing") }
func errNotSeekable() error { return fault.Runtime("stream does not support seeking") }

type closerFunc func() error

func (fn closerFunc) Close() error { return fn() }
