package semantic

import (
	"time"

	"http-client/application/http/semantic/status"
	"http-client/application/http/stream"
	"http-client/lib/fault"

	"github.com/pkg/errors"
)

// Response is an immutable response.
// Mutators return a modified copy, or the receiver itself when nothing changes.
type Response struct {
	Message

	statusCode   uint
	reasonPhrase string
}

// NewResponse creates a response. An empty reason is looked up from the
// status table, and stays empty for unregistered codes.
func NewResponse(code uint, headers Headers, body stream.Stream, protocol, reason string) (*Response, error) {
	if err := assertValidStatus(code); err != nil {
		return nil, err
	}

	m, _, err := newMessage("", headers, body).withProtocolVersion(protocol)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = status.ReasonPhrase(code)
	}

	return &Response{Message: m, statusCode: code, reasonPhrase: reason}, nil
}

func assertValidStatus(code uint) error {
	if code < 100 || code > 599 {
		return fault.InvalidArgument("status code must be in [100, 599]: %d", code)
	}
	return nil
}

func (r *Response) StatusCode() uint { return r.statusCode }

func (r *Response) ReasonPhrase() string { return r.reasonPhrase }

// Date returns the parsed Date header. ok is false when it is absent.
func (r *Response) Date() (t time.Time, ok bool, err error) {
	v, ok := r.headers.Get("Date")
	if !ok {
		return time.Time{}, false, nil
	}

	t, err = ParseDate(v)
	if err != nil {
		return time.Time{}, true, errors.Wrap(err, "parsing date header")
	}

	return t, true, nil
}

func (r *Response) clone() *Response {
	out := *r
	return &out
}

func (r *Response) WithStatus(code uint, reason string) (*Response, error) {
	if err := assertValidStatus(code); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = status.ReasonPhrase(code)
	}
	if r.statusCode == code && r.reasonPhrase == reason {
		return r, nil
	}

	out := r.clone()
	out.statusCode = code
	out.reasonPhrase = reason
	return out, nil
}

func (r *Response) WithProtocolVersion(version string) (*Response, error) {
	m, changed, err := r.withProtocolVersion(version)
	return r.apply(m, changed, err)
}

func (r *Response) WithHeader(name string, values ...string) (*Response, error) {
	m, changed, err := r.withHeaders(r.headers.With(name, values...))
	return r.apply(m, changed, err)
}

func (r *Response) WithAddedHeader(name string, values ...string) (*Response, error) {
	m, changed, err := r.withHeaders(r.headers.WithAdded(name, values...))
	return r.apply(m, changed, err)
}

func (r *Response) WithoutHeader(name string) *Response {
	m, changed, _ := r.withHeaders(r.headers.Without(name), nil)
	out, _ := r.apply(m, changed, nil)
	return out
}

// WithHeaders replaces every header at once.
func (r *Response) WithHeaders(h Headers) *Response {
	m, changed, _ := r.withHeaders(h, nil)
	out, _ := r.apply(m, changed, nil)
	return out
}

// WithBody replaces the body. The previous body is not closed;
// it belongs to the caller from now on.
func (r *Response) WithBody(body stream.Stream) *Response {
	m, changed := r.withBody(body)
	out, _ := r.apply(m, changed, nil)
	return out
}

func (r *Response) apply(m Message, changed bool, err error) (*Response, error) {
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}

	out := r.clone()
	out.Message = m
	return out, nil
}
