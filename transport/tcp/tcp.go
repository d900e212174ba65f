// Package tcp dials operating system sockets, optionally TLS-wrapped or
// tunneled through a SOCKS5 proxy.
package tcp

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/netip"
	"os"
	"slices"
	"strings"
	"syscall"
	"time"

	"http-client/application/util/domain"
	"http-client/transport"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const (
	TransportTCP    = "tcp"
	TransportSSL    = "ssl"
	TransportTLS    = "tls"
	TransportTLS12  = "tlsv1.2"
	TransportTLS13  = "tlsv1.3"
	TransportSOCKS5 = "socks5"
)

// tlsVersions maps TLS-class transports to pinned versions. 0 leaves the
// choice to the config.
var tlsVersions = map[string]uint16{
	TransportSSL:   0,
	TransportTLS:   0,
	TransportTLS12: tls.VersionTLS12,
	TransportTLS13: tls.VersionTLS13,
}

// IsTLS reports whether name is a TLS-class transport.
func IsTLS(name string) bool {
	_, ok := tlsVersions[name]
	return ok
}

type Dialer struct {
	net       net.Dialer
	tlsConfig *tls.Config
	lookuper  domain.Lookuper
}

// NewDialer creates a dialer. tlsConfig may be nil.
func NewDialer(tlsConfig *tls.Config) *Dialer {
	return &Dialer{tlsConfig: tlsConfig}
}

// WithLookuper makes the dialer resolve host names through l instead of the
// system resolver. Names sent to a SOCKS5 proxy are not resolved locally.
func (d *Dialer) WithLookuper(l domain.Lookuper) *Dialer {
	d.lookuper = l
	return d
}

var _ transport.TLSDialer = (*Dialer)(nil)

func (d *Dialer) Transports() []string {
	names := []string{TransportTCP}
	for name := range tlsVersions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	return d.DialTLS(ctx, addr, d.tlsConfig)
}

// DialTLS is like Dial but uses cfg for TLS-class transports.
func (d *Dialer) DialTLS(ctx context.Context, addr transport.Addr, cfg *tls.Config) (transport.Conn, error) {
	if addr.Transport != TransportTCP && !IsTLS(addr.Transport) {
		return nil, errors.Wrapf(transport.ErrUnsupportedTransport, "dialing %s", addr)
	}

	raw, err := d.dialRaw(ctx, addr)
	if err != nil {
		return nil, err
	}

	if IsTLS(addr.Transport) {
		tlsConn, err := handshake(ctx, raw, addr, cfg)
		if err != nil {
			raw.Close()
			return nil, err
		}
		raw = tlsConn
	}

	return &conn{
		raw:    raw,
		local:  toAddr(addr.Transport, raw.LocalAddr()),
		remote: addr,
	}, nil
}

func (d *Dialer) dialRaw(ctx context.Context, addr transport.Addr) (net.Conn, error) {
	if addr.Via == nil {
		hostPort, err := d.resolve(ctx, addr)
		if err != nil {
			return nil, err
		}
		c, err := d.net.DialContext(ctx, "tcp", hostPort)
		return c, errors.Wrapf(err, "dialing %s", addr)
	}

	if addr.Via.Transport != TransportSOCKS5 {
		return nil, errors.Wrapf(transport.ErrUnsupportedTransport, "proxy %s", addr.Via)
	}

	socks, err := proxy.SOCKS5("tcp", addr.Via.HostPort(), nil, &d.net)
	if err != nil {
		return nil, errors.Wrapf(err, "creating socks5 dialer for %s", addr.Via)
	}

	cd, ok := socks.(proxy.ContextDialer)
	if !ok {
		return nil, errors.Errorf("socks5 dialer doesn't support contexts")
	}

	c, err := cd.DialContext(ctx, "tcp", addr.HostPort())
	return c, errors.Wrapf(err, "dialing %s via %s", addr, addr.Via)
}

// resolve returns the first looked up address of addr's host, or the host
// itself when no lookuper is set or the host is an IP literal.
func (d *Dialer) resolve(ctx context.Context, addr transport.Addr) (string, error) {
	host := strings.Trim(addr.Host, "[]")
	if d.lookuper == nil {
		return addr.HostPort(), nil
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return addr.HostPort(), nil
	}

	ips, err := d.lookuper.LookupIP(ctx, host)
	if err != nil {
		return "", errors.Wrap(transport.ErrNetUnreachable, err.Error())
	}
	return netip.AddrPortFrom(ips[0], addr.Port).String(), nil
}

func handshake(ctx context.Context, raw net.Conn, addr transport.Addr, cfg *tls.Config) (*tls.Conn, error) {
	config := cfg.Clone()
	if config == nil {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = strings.Trim(addr.Host, "[]")
	}
	if v := tlsVersions[addr.Transport]; v != 0 {
		config.MinVersion, config.MaxVersion = v, v
	}

	c := tls.Client(raw, config)
	if err := c.HandshakeContext(ctx); err != nil {
		return nil, errors.Wrapf(err, "tls handshake with %s", addr)
	}

	return c, nil
}

func toAddr(transportName string, a net.Addr) transport.Addr {
	if a == nil {
		return transport.Addr{Transport: transportName}
	}
	parsed, err := transport.ParseAddr(transportName + "://" + a.String())
	if err != nil {
		return transport.Addr{Transport: transportName, Host: a.String()}
	}
	return parsed
}

type conn struct {
	raw           net.Conn
	local, remote transport.Addr
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.raw.Read(p)
	return n, translate(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.raw.Write(p)
	return n, translate(err)
}

func (c *conn) Close() error {
	if err := c.raw.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *conn) LocalAddr() transport.Addr  { return c.local }
func (c *conn) RemoteAddr() transport.Addr { return c.remote }

func (c *conn) SetReadDeadLine(t time.Time) error  { return c.raw.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) error { return c.raw.SetWriteDeadline(t) }

// SyscallConn exposes the descriptor of the underlying socket.
func (c *conn) SyscallConn() (syscall.RawConn, error) {
	raw := c.raw
	if tc, ok := raw.(*tls.Conn); ok {
		raw = tc.NetConn()
	}
	sc, ok := raw.(syscall.Conn)
	if !ok {
		return nil, errors.New("connection has no descriptor")
	}
	return sc.SyscallConn()
}

func translate(err error) error {
	switch {
	case err == nil, err == io.EOF:
		return err
	case errors.Is(err, net.ErrClosed):
		return errors.Wrap(transport.ErrConnClosed, err.Error())
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errors.Wrap(transport.ErrDeadLineExceeded, err.Error())
	}
	return err
}
