// Package transport defines the connections the client writes requests to.
//
// A connection is dialed by a [ConnDialer] for an [Addr] naming a transport
// ("tcp", "tls", ...) and an endpoint. Implementations live in sub packages.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"time"
)

var (
	ErrConnClosed           = errors.New("connection is closed")
	ErrConnListenerClosed   = errors.New("conn listener is closed")
	ErrDeadLineExceeded     = errors.New("deadline exceeded")
	ErrConnRefused          = errors.New("connection refused")
	ErrNetUnreachable       = errors.New("network is unreachable")
	ErrAddrAlreadyInUse     = errors.New("address already in use")
	ErrUnsupportedTransport = errors.New("unsupported transport")
)

// Conn is a bidirectional byte stream.
// Read returns io.EOF once the remote side closed and nothing is left to read.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	// A zero t clears the deadline.
	SetReadDeadLine(t time.Time) error
	SetWriteDeadLine(t time.Time) error
}

// BufferedConn is a [Conn] whose writes complete without a matching read,
// up to the size of the remote buffer.
type BufferedConn interface {
	Conn
	ReadBufSize() uint
	WriteBufSize() uint
}

type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
	// Transports lists the transport names Dial accepts.
	Transports() []string
}

// TLSDialer is a [ConnDialer] accepting a TLS configuration per dial.
// cfg applies to TLS-class transports only.
type TLSDialer interface {
	ConnDialer
	DialTLS(ctx context.Context, addr Addr, cfg *tls.Config) (Conn, error)
}
