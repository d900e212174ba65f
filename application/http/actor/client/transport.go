package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"http-client/application/http/semantic"
	"http-client/application/http/stream"
	"http-client/application/util/rule"
	"http-client/application/util/uri"
	"http-client/lib/fault"
	iolib "http-client/lib/io"
	"http-client/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	transportTCP = "tcp"
	proxySOCKS5  = "socks5"
)

// Transport owns the connection of one request.
// A body stream created from it borrows the connection; closing either
// closes the connection exactly once.
type Transport struct {
	req       *semantic.Request
	dialer    transport.ConnDialer
	opts      TransportOptions
	tlsConfig *tls.Config

	clock  clock.Clock
	logger *slog.Logger

	conn      transport.Conn
	closeOnce sync.Once
	closeErr  error
}

func NewTransport(
	req *semantic.Request,
	dialer transport.ConnDialer,
	opts TransportOptions,
	tlsConfig *tls.Config,
	clock clock.Clock,
	logger *slog.Logger,
) *Transport {
	return &Transport{
		req:       req,
		dialer:    dialer,
		opts:      opts,
		tlsConfig: tlsConfig,
		clock:     clock,
		logger:    logger,
	}
}

// Connect dials the proxy when one is configured, or the request's host.
// https uses a TLS-class transport and defaults to port 443, anything else
// plain tcp and port 80.
func (t *Transport) Connect(ctx context.Context) error {
	if t.conn != nil {
		return fault.Runtime("transport is already connected")
	}

	addr, err := t.target()
	if err != nil {
		return err
	}

	if t.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = t.clock.WithTimeout(ctx, t.opts.ConnectTimeout)
		defer cancel()
	}

	t.logger.Debug("connecting", slog.String("addr", addr.String()))

	var conn transport.Conn
	if td, ok := t.dialer.(transport.TLSDialer); ok && t.tlsConfig != nil {
		conn, err = td.DialTLS(ctx, addr, t.tlsConfig)
	} else {
		conn, err = t.dialer.Dial(ctx, addr)
	}
	if err != nil {
		return newNetworkError(t.req, err, "connecting to "+addr.String())
	}

	t.conn = conn
	return nil
}

func (t *Transport) target() (transport.Addr, error) {
	u := t.req.URI()

	var proxy *transport.Addr
	if t.opts.Proxy != "" {
		p, err := transport.ParseAddr(t.opts.Proxy)
		if err != nil {
			return transport.Addr{}, fault.InvalidArgument("proxy %q: %s", t.opts.Proxy, err)
		}
		if p.Transport != proxySOCKS5 {
			// Used as is.
			return p, nil
		}
		proxy = &p
	}

	if u.Host() == "" {
		return transport.Addr{}, fault.InvalidArgument("request uri %q has no host", u.String())
	}

	port, ok := u.Port()
	if !ok {
		port = uri.DefaultPort(u.Scheme())
	}

	name := transportTCP
	if u.Scheme() == "https" {
		var err error
		if name, err = t.tlsTransport(); err != nil {
			return transport.Addr{}, err
		}
		if port == 0 {
			port = 443
		}
	}
	if port == 0 {
		port = 80
	}

	return transport.Addr{Transport: name, Host: u.Host(), Port: port, Via: proxy}, nil
}

// tlsTransport returns the configured name, or the lexicographically last
// TLS-class name the dialer supports.
func (t *Transport) tlsTransport() (string, error) {
	if t.opts.SSLProtocol != "" {
		return t.opts.SSLProtocol, nil
	}

	var names []string
	for _, name := range t.dialer.Transports() {
		if strings.HasPrefix(name, "ssl") || strings.HasPrefix(name, "tls") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", fault.Runtime("no TLS transport available for https")
	}

	slices.Sort(names)
	return names[len(names)-1], nil
}

// Send writes data completely. Empty data is a no-op.
func (t *Transport) Send(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if t.conn == nil {
		return fault.Runtime("transport is not connected")
	}

	if _, err := iolib.WriteFull(t.conn, data); err != nil {
		return newNetworkError(t.req, err, "writing to connection")
	}
	return nil
}

// ReadMessage reads the message head one byte at a time, so nothing after
// the blank line is consumed. At end-of-data, what was read is returned
// without trailing CR and LF.
func (t *Transport) ReadMessage() ([]byte, error) {
	if t.conn == nil {
		return nil, fault.Runtime("transport is not connected")
	}

	if t.opts.HeadReadTimeout > 0 {
		if err := t.conn.SetReadDeadLine(t.clock.Now().Add(t.opts.HeadReadTimeout)); err != nil {
			return nil, newNetworkError(t.req, err, "setting read deadline")
		}
		defer func() { _ = t.conn.SetReadDeadLine(time.Time{}) }()
	}

	var (
		buf []byte
		one = make([]byte, 1)
	)
	for {
		n, err := t.conn.Read(one)
		if n > 0 {
			buf = append(buf, one[0])
			if bytes.HasSuffix(buf, rule.HeadTerminator) {
				return buf, nil
			}
		}

		if errors.Is(err, io.EOF) {
			return bytes.TrimRight(buf, "\r\n"), nil
		}
		if err != nil {
			return nil, newNetworkError(t.req, err, "reading message head")
		}
	}
}

// CreateBodyStream exposes the rest of the connection as a stream.
func (t *Transport) CreateBodyStream(opts stream.SocketOptions) (*stream.Socket, error) {
	if t.conn == nil {
		return nil, fault.Runtime("transport is not connected")
	}
	return stream.NewSocket(&borrowedConn{t}, opts), nil
}

func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		if t.conn == nil {
			return
		}
		if t.closeErr = t.conn.Close(); t.closeErr != nil {
			t.logger.Warn("closing connection", slog.String("error", t.closeErr.Error()))
		}
	})
	return t.closeErr
}

type borrowedConn struct{ t *Transport }

func (b *borrowedConn) Read(p []byte) (int, error)  { return b.t.conn.Read(p) }
func (b *borrowedConn) Write(p []byte) (int, error) { return b.t.conn.Write(p) }
func (b *borrowedConn) Close() error                { return b.t.Close() }

// SyscallConn lets the stream stat the descriptor, when there is one.
func (b *borrowedConn) SyscallConn() (syscall.RawConn, error) {
	sc, ok := b.t.conn.(syscall.Conn)
	if !ok {
		return nil, errors.New("connection has no descriptor")
	}
	return sc.SyscallConn()
}
