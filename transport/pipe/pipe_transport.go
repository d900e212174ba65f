package pipe

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"http-client/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Options struct {
	// Transports are the transport names Dial accepts.
	// Listeners are looked up by host and port only.
	Transports []string
	// BufSize selects buffered pipes when greater than 0.
	BufSize uint
}

var DefaultOptions = Options{
	Transports: []string{"tcp", "tls"},
	BufSize:    4096,
}

type pipeRequest struct {
	conn     transport.Conn
	accepted chan struct{}
}

// PipeTransport dials in-memory connections to its listeners.
type PipeTransport struct {
	listeners map[string]*pipeListener
	ports     *transport.PortTable
	clock     clock.Clock
	opts      Options

	dials atomic.Int64

	mu sync.Mutex
}

func NewPipeTransport(clock clock.Clock, opts Options) *PipeTransport {
	ports, err := transport.NewPortTable(transport.DefaultEphemeralPortOptions)
	if err != nil {
		panic(err)
	}

	return &PipeTransport{
		listeners: make(map[string]*pipeListener),
		ports:     ports,
		clock:     clock,
		opts:      opts,
	}
}

var _ transport.ConnDialer = (*PipeTransport)(nil)

func (pt *PipeTransport) Transports() []string { return slices.Clone(pt.opts.Transports) }

// Dials returns how many connections were dialed, including refused ones.
func (pt *PipeTransport) Dials() int { return int(pt.dials.Load()) }

// OpenConns returns how many dialed connections are not closed yet.
func (pt *PipeTransport) OpenConns() int { return pt.ports.InUse() }

func (pt *PipeTransport) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	pt.dials.Add(1)

	if !slices.Contains(pt.opts.Transports, addr.Transport) {
		return nil, errors.Wrapf(transport.ErrUnsupportedTransport, "dialing %s", addr)
	}

	pt.mu.Lock()
	listener, ok := pt.listeners[addr.HostPort()]
	pt.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(transport.ErrNetUnreachable, "dialing %s", addr)
	}

	port, release, err := pt.ports.Occupy(0)
	if err != nil {
		return nil, errors.Wrap(err, "occupying local port")
	}
	local := transport.Addr{Transport: addr.Transport, Host: "dialer", Port: port}

	dialer, accepter := pt.newPair(local, addr)
	setOnClose(dialer, release)

	req := pipeRequest{
		conn:     accepter,
		accepted: make(chan struct{}, 1),
	}

	select {
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	case <-listener.closed:
		release()
		return nil, transport.ErrConnRefused
	case listener.requests <- req:
	}

	select {
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	case _, accepted := <-req.accepted:
		if !accepted {
			release()
			return nil, transport.ErrConnRefused
		}
	}

	return dialer, nil
}

func (pt *PipeTransport) newPair(local, remote transport.Addr) (transport.Conn, transport.Conn) {
	if pt.opts.BufSize > 0 {
		return BufferedPipe(local, remote, pt.clock, pt.opts.BufSize)
	}
	return Pipe(local, remote, pt.clock)
}

func setOnClose(conn transport.Conn, f func()) {
	switch c := conn.(type) {
	case *pipe:
		c.onClose = f
	case *bufferedPipe:
		c.onClose = f
	}
}

// Listen accepts connections dialed to addr, whatever its transport is.
func (pt *PipeTransport) Listen(addr transport.Addr) (*pipeListener, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	key := addr.HostPort()
	if _, ok := pt.listeners[key]; ok {
		return nil, transport.ErrAddrAlreadyInUse
	}

	pl := &pipeListener{
		addr:      addr,
		transport: pt,
		requests:  make(chan pipeRequest),
		closed:    make(chan struct{}),
	}
	pt.listeners[key] = pl

	return pl, nil
}

type pipeListener struct {
	addr transport.Addr

	transport *PipeTransport

	requests chan pipeRequest
	closed   chan struct{}

	mu sync.Mutex
}

var _ transport.ConnListener = (*pipeListener)(nil)

func (pl *pipeListener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-pl.closed:
		return nil, transport.ErrConnListenerClosed
	case request := <-pl.requests:
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case request.accepted <- struct{}{}:
		}

		return request.conn, nil
	}
}

func (pl *pipeListener) Close() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	select {
	case <-pl.closed:
		return transport.ErrConnListenerClosed
	default:
	}

	close(pl.closed)

	// Refuse dialers already waiting.
	for {
		select {
		case req := <-pl.requests:
			close(req.accepted)
			continue
		default:
		}
		break
	}

	pl.transport.mu.Lock()
	delete(pl.transport.listeners, pl.addr.HostPort())
	pl.transport.mu.Unlock()

	return nil
}
