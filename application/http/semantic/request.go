package semantic

import (
	"strconv"
	"strings"

	"http-client/application/http/stream"
	"http-client/application/util/rule"
	"http-client/application/util/uri"
	"http-client/lib/fault"

	"github.com/pkg/errors"
)

// Request is an immutable outgoing request.
// Mutators return a modified copy, or the receiver itself when nothing changes.
type Request struct {
	Message

	method Method
	uri    uri.URI
	// target overrides the request-target derived from uri when set.
	target string
}

// NewRequest parses rawURI and creates a request.
// A Host header is derived from the URI unless headers already carry one.
func NewRequest(method Method, rawURI string, headers Headers, body stream.Stream) (*Request, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, errors.Wrap(err, "parsing request uri")
	}
	return NewRequestURI(method, u, headers, body)
}

func NewRequestURI(method Method, u uri.URI, headers Headers, body stream.Stream) (*Request, error) {
	if err := assertValidMethod(method); err != nil {
		return nil, err
	}

	r := &Request{
		Message: newMessage(DefaultProtocolVersion, headers, body),
		method:  method,
		uri:     u,
	}
	if !headers.Has("Host") {
		if err := r.updateHost(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Empty method is accepted here and rejected when the request is sent.
func assertValidMethod(m Method) error {
	if m != "" && !rule.IsValidToken(string(m)) {
		return fault.InvalidArgument("method must be a token: %q", m)
	}
	return nil
}

func (r *Request) Method() Method { return r.method }

func (r *Request) URI() uri.URI { return r.uri }

// RequestTarget returns the explicit target, or the origin-form derived
// from the current URI: path ("/" if empty) followed by "?query".
func (r *Request) RequestTarget() string {
	if r.target != "" {
		return r.target
	}

	target := r.uri.Path()
	if target == "" {
		target = "/"
	}
	if q := r.uri.Query(); q != "" {
		target += "?" + q
	}

	return target
}

func (r *Request) clone() *Request {
	out := *r
	return &out
}

// WithRequestTarget sets an explicit request-target, used regardless of later URI changes.
// An empty target restores deriving it from the URI.
func (r *Request) WithRequestTarget(target string) (*Request, error) {
	if strings.ContainsAny(target, " \t\r\n") {
		return nil, fault.InvalidArgument("request target can't contain whitespace: %q", target)
	}
	if r.target == target {
		return r, nil
	}

	out := r.clone()
	out.target = target
	return out, nil
}

func (r *Request) WithMethod(method Method) (*Request, error) {
	if err := assertValidMethod(method); err != nil {
		return nil, err
	}
	if r.method == method {
		return r, nil
	}

	out := r.clone()
	out.method = method
	return out, nil
}

// WithURI replaces the URI and recomputes the Host header.
// When preserveHost is set, an existing Host header is kept as is.
func (r *Request) WithURI(u uri.URI, preserveHost bool) (*Request, error) {
	if r.uri.Equal(u) {
		return r, nil
	}

	out := r.clone()
	out.uri = u
	if !preserveHost || !out.headers.Has("Host") {
		if err := out.updateHost(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// updateHost sets Host to "host[:port]" of the URI and moves it to the front.
// A URI without host leaves the headers untouched.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-7.2
func (r *Request) updateHost() error {
	host := r.uri.Host()
	if host == "" {
		return nil
	}
	if port, ok := r.uri.Port(); ok {
		host += ":" + strconv.FormatUint(uint64(port), 10)
	}

	h, err := r.headers.WithFirst("Host", host)
	if err != nil {
		return errors.Wrap(err, "setting host header")
	}
	r.headers = h

	return nil
}

func (r *Request) WithProtocolVersion(version string) (*Request, error) {
	m, changed, err := r.withProtocolVersion(version)
	return r.apply(m, changed, err)
}

func (r *Request) WithHeader(name string, values ...string) (*Request, error) {
	m, changed, err := r.withHeaders(r.headers.With(name, values...))
	return r.apply(m, changed, err)
}

func (r *Request) WithAddedHeader(name string, values ...string) (*Request, error) {
	m, changed, err := r.withHeaders(r.headers.WithAdded(name, values...))
	return r.apply(m, changed, err)
}

func (r *Request) WithoutHeader(name string) *Request {
	m, changed, _ := r.withHeaders(r.headers.Without(name), nil)
	out, _ := r.apply(m, changed, nil)
	return out
}

// WithBody replaces the body. The previous body is not closed;
// it belongs to the caller from now on.
func (r *Request) WithBody(body stream.Stream) *Request {
	m, changed := r.withBody(body)
	out, _ := r.apply(m, changed, nil)
	return out
}

func (r *Request) apply(m Message, changed bool, err error) (*Request, error) {
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
