package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"http-client/application/http"
	"http-client/application/http/semantic"
	"http-client/application/http/semantic/status"
	"http-client/application/http/stream"
	"http-client/application/util/uri"
	"http-client/lib/fault"
	"http-client/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

// BodyChunkSize is how many body bytes are written at once.
const BodyChunkSize = 4096

// Client sends requests over a fresh connection each.
// It is not safe for concurrent use.
type Client struct {
	dialer    transport.ConnDialer
	logger    *slog.Logger
	clock     clock.Clock
	prototype *semantic.Response

	opts      Options
	tlsConfig *tls.Config

	// current is the transport of the last response, left open for its body.
	current *Transport
}

// New creates a client. Final responses are built from prototype, which
// defaults to an empty 200 response. nil logger and clock are replaced
// with a discarding logger and the wall clock. A zero opts is replaced with
// [DefaultOptions]; to change single fields, start from [DefaultOptions].
func New(
	d transport.ConnDialer,
	logger *slog.Logger,
	clk clock.Clock,
	prototype *semantic.Response,
	opts Options,
) (*Client, error) {
	if d == nil {
		return nil, fault.InvalidArgument("dialer is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.New()
	}
	if reflect.ValueOf(opts).IsZero() {
		opts = DefaultOptions()
	}
	if prototype == nil {
		var err error
		if prototype, err = semantic.NewResponse(status.OK.Code, semantic.Headers{}, nil, "", ""); err != nil {
			return nil, err
		}
	}

	tlsConfig, err := opts.TLS.Config()
	if err != nil {
		return nil, errors.Wrap(err, "building tls config")
	}

	return &Client{
		dialer:    d,
		logger:    logger,
		clock:     clk,
		prototype: prototype,
		opts:      opts,
		tlsConfig: tlsConfig,
	}, nil
}

// SendRequest sends req and returns the final response, following redirects
// as configured. The body of the response reads from the connection, which
// stays open until the body or the client is closed, or the next request
// is sent.
func (c *Client) SendRequest(ctx context.Context, req *semantic.Request) (*semantic.Response, error) {
	if err := c.Close(); err != nil {
		c.logger.Warn("closing previous transport", slog.String("error", err.Error()))
	}

	budget := c.opts.MaxRedirects
	for resend := false; ; resend = true {
		head, err := c.buildHead(req)
		if err != nil {
			return nil, err
		}
		if err := rewindBody(req, resend); err != nil {
			return nil, err
		}

		t := NewTransport(req, c.dialer, c.opts.Transport, c.tlsConfig, c.clock, c.logger)
		if err := c.transmit(ctx, t, head, req.Body()); err != nil {
			t.Close()
			return nil, err
		}

		if !c.opts.WaitResponse {
			c.current = t
			return c.prototype, nil
		}

		statusLine, headers, err := c.receiveHead(t, req)
		if err != nil {
			t.Close()
			return nil, err
		}

		location, hasLocation := headers.Get("Location")
		if !c.opts.FollowLocation || !status.IsRedirect(statusLine.StatusCode) || !hasLocation {
			res, err := c.finalize(t, statusLine, headers)
			if err != nil {
				t.Close()
				return nil, err
			}
			c.current = t
			return res, nil
		}

		t.Close()

		if budget == 0 {
			return nil, newRequestError(req, "too many redirects")
		}
		budget--

		next, err := c.redirect(req, location)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("following redirect",
			slog.Uint64("status", uint64(statusLine.StatusCode)),
			slog.String("from", req.URI().String()),
			slog.String("to", next.URI().String()),
			slog.Uint64("remaining", uint64(budget)),
		)
		req = next
	}
}

// Close closes the transport of the last response.
func (c *Client) Close() error {
	if c.current == nil {
		return nil
	}
	t := c.current
	c.current = nil
	return t.Close()
}

// buildHead validates req and encodes its head with the default headers added.
func (c *Client) buildHead(req *semantic.Request) ([]byte, error) {
	method := req.Method()
	if method == "" {
		return nil, newRequestError(req, "request method is empty")
	}

	body := req.Body()
	size, known := body.Size()
	if !known {
		return nil, newRequestError(req, "request body has unknown size")
	}
	if size > 0 && !method.AllowsBody() {
		return nil, newRequestError(req, "%s request can't have a body", method)
	}

	target := req.RequestTarget()
	if c.opts.RequestFullURI {
		target = req.URI().String()
	}
	if target == "" {
		target = "/"
	}

	headers := req.Headers()
	var err error
	set := func(name, value string) {
		if err == nil {
			headers, err = headers.With(name, value)
		}
	}

	if !headers.Has("User-Agent") {
		set("User-Agent", c.userAgent())
	}
	switch b := body.(type) {
	case *stream.JSON:
		set("Content-Type", "application/json; charset=UTF-8")
	case *stream.Multipart:
		set("Content-Type", "multipart/form-data; boundary="+b.Boundary())
	}
	set("Content-Length", strconv.FormatInt(size, 10))
	set("Connection", "close")
	if err != nil {
		return nil, wrapRequestError(req, err, "setting default headers")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	line := http.RequestLine{
		Method:   string(method),
		Target:   target,
		Protocol: req.ProtocolVersion(),
	}
	if err := http.NewRequestEncoder(buf, c.opts.Encode).EncodeHead(line, headers.Fields()); err != nil {
		return nil, wrapRequestError(req, err, "encoding request head")
	}

	return bytes.Clone(buf.B), nil
}

func (c *Client) userAgent() string {
	if c.opts.UserAgent != "" {
		return c.opts.UserAgent
	}
	return DefaultUserAgent
}

// transmit connects, then writes the head and the body in chunks.
func (c *Client) transmit(ctx context.Context, t *Transport, head []byte, body stream.Stream) error {
	if err := t.Connect(ctx); err != nil {
		return err
	}

	if err := t.Send(head); err != nil {
		return err
	}
	c.logger.Debug("request head sent", slog.Int("bytes", len(head)))

	for !body.EOF() {
		chunk, err := body.ReadN(BodyChunkSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "reading request body")
		}
		if err := t.Send(chunk); err != nil {
			return err
		}
		if len(chunk) == 0 {
			break
		}
	}

	return nil
}

// rewindBody moves the request body back to its start. A body that can't be
// rewound is only sent as is the first time.
func rewindBody(req *semantic.Request, resend bool) error {
	body := req.Body()
	err := body.Rewind()
	if err == nil {
		return nil
	}
	if body.Seekable() {
		return wrapRequestError(req, err, "rewinding request body")
	}
	if size, _ := body.Size(); resend && size > 0 {
		return wrapRequestError(req, err, "request body can't be sent again")
	}
	return nil
}

func (c *Client) receiveHead(t *Transport, req *semantic.Request) (http.StatusLine, semantic.Headers, error) {
	head, err := t.ReadMessage()
	if err != nil {
		return http.StatusLine{}, semantic.Headers{}, err
	}
	if len(head) == 0 {
		return http.StatusLine{}, semantic.Headers{}, newRequestError(req, "empty response")
	}

	statusLine, fields, err := http.ParseHead(head, c.opts.Decode)
	if err != nil {
		return http.StatusLine{}, semantic.Headers{}, wrapRequestError(req, err, "parsing response head")
	}

	headers, err := semantic.HeadersFrom(fields)
	if err != nil {
		return http.StatusLine{}, semantic.Headers{}, wrapRequestError(req, err, "parsing response headers")
	}

	c.logger.Debug("response head received",
		slog.Uint64("status", uint64(statusLine.StatusCode)),
		slog.String("reason", statusLine.ReasonPhrase),
	)

	return statusLine, headers, nil
}

// redirect points req to location. A relative location only replaces path
// and query; an absolute one replaces the URI and the Host header.
func (c *Client) redirect(req *semantic.Request, location string) (*semantic.Request, error) {
	var (
		next *semantic.Request
		err  error
	)

	if uri.IsRelativeURL(location) {
		path, query, perr := uri.ExtractRelative(location)
		if perr != nil {
			return nil, &RequestError{Request: req, cause: errors.Errorf("invalid location %q: %s", location, perr)}
		}
		if !strings.HasPrefix(path, "/") {
			// Relative to the current path.
			resolver, rerr := uri.NewRefResolver(req.URI())
			ref, perr := uri.Parse(path)
			if rerr == nil && perr == nil {
				path = resolver.Resolve(ref).Path()
			}
		}
		next, err = req.WithURI(req.URI().WithPath(path).WithQuery(query), true)
	} else {
		u, perr := uri.Parse(location)
		if perr != nil {
			return nil, &RequestError{Request: req, cause: errors.Errorf("invalid location %q: %s", location, perr)}
		}
		next, err = req.WithURI(u, false)
	}
	if err != nil {
		return nil, &RequestError{Request: req, cause: errors.Errorf("redirecting to %q: %s", location, err)}
	}

	// The new target is derived from the new URI.
	return next.WithRequestTarget("")
}

func (c *Client) finalize(t *Transport, statusLine http.StatusLine, headers semantic.Headers) (*semantic.Response, error) {
	var contentLength int64
	if v, ok := headers.Get("Content-Length"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, newRequestError(t.req, "invalid Content-Length %q", v)
		}
		contentLength = n
	}

	body, err := t.CreateBodyStream(stream.SocketOptions{ContentLength: contentLength, HasContentLength: true})
	if err != nil {
		return nil, err
	}

	res, err := c.prototype.WithProtocolVersion(statusLine.Protocol)
	if err == nil {
		res, err = res.WithStatus(statusLine.StatusCode, statusLine.ReasonPhrase)
	}
	if err != nil {
		return nil, &RequestError{Request: t.req, cause: errors.Errorf("invalid status line: %s", err)}
	}

	return res.WithHeaders(headers).WithBody(body), nil
}
