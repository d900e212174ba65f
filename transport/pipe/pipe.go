// Package pipe provides in-memory connections.
//
// Wow this so much looks like the one in stdlib!
// Because I borrowed the idea from there..
package pipe

import (
	"io"
	"sync"
	"time"

	"http-client/transport"

	"github.com/benbjohnson/clock"
)

type pipe struct {
	stream chan []byte // stream that this pipe reads from.
	nc     chan int    // counterpart's respond will be sent here.

	writeMu sync.Mutex

	closed  chan struct{}
	once    sync.Once // making sure not to close closed channel.
	onClose func()

	rdeadLine *chanDeadLine
	wdeadLine *chanDeadLine

	// the opposite pipe.
	counterpart *pipe

	addr transport.Addr
}

var _ transport.Conn = (*pipe)(nil)

// Pipe creates a pair of pipes. each of pipes will be synchronous, unbuffered.
func Pipe(addr1, addr2 transport.Addr, clock clock.Clock) (c1, c2 *pipe) {
	newPipe := func(addr transport.Addr) *pipe {
		return &pipe{
			stream:    make(chan []byte),
			nc:        make(chan int),
			closed:    make(chan struct{}),
			rdeadLine: newChanDeadLine(clock),
			wdeadLine: newChanDeadLine(clock),
			addr:      addr,
		}
	}

	c1, c2 = newPipe(addr1), newPipe(addr2)
	c1.counterpart, c2.counterpart = c2, c1
	return
}

func (p *pipe) LocalAddr() transport.Addr  { return p.addr }
func (p *pipe) RemoteAddr() transport.Addr { return p.counterpart.addr }

func (p *pipe) Close() error {
	p.once.Do(func() {
		close(p.closed)
		p.rdeadLine.stop()
		p.wdeadLine.stop()
		if p.onClose != nil {
			p.onClose()
		}
	})
	return nil
}

// Read returns io.EOF once the counterpart is closed.
func (p *pipe) Read(b []byte) (n int, err error) {
	if err := p.checkReadOK(); err != nil {
		return 0, err
	}

	select {
	case received := <-p.stream:
		n := copy(b, received)
		p.counterpart.nc <- n
		return n, nil
	case <-p.closed:
		return 0, transport.ErrConnClosed
	case <-p.counterpart.closed:
		return 0, io.EOF
	case <-p.rdeadLine.wait():
		return 0, transport.ErrDeadLineExceeded
	}
}

func (p *pipe) Write(b []byte) (n int, err error) {
	if err := p.checkWriteOK(); err != nil {
		return 0, err
	}

	if len(b) == 0 {
		return 0, nil
	}

	// Serialize write operations to prevent interleaving write.
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// Ensure all the bytes are sent.
	// Wow this actually is a do-while loop.
	nn := 0
	for once := true; once || len(b) > 0; once = false {
		select {
		case p.counterpart.stream <- b:
			n := <-p.nc
			b = b[n:]
			nn += n
		case <-p.closed:
			return nn, transport.ErrConnClosed
		case <-p.counterpart.closed:
			return nn, transport.ErrConnClosed
		case <-p.wdeadLine.wait():
			return nn, transport.ErrDeadLineExceeded
		}
	}

	return nn, nil
}

func (p *pipe) checkReadOK() error {
	switch {
	case isClosed(p.closed):
		return transport.ErrConnClosed
	case isClosed(p.rdeadLine.wait()):
		return transport.ErrDeadLineExceeded
	}
	return nil
}

func (p *pipe) checkWriteOK() error {
	switch {
	case isClosed(p.closed), isClosed(p.counterpart.closed):
		return transport.ErrConnClosed
	case isClosed(p.wdeadLine.wait()):
		return transport.ErrDeadLineExceeded
	}
	return nil
}

func (p *pipe) SetReadDeadLine(t time.Time) error  { p.rdeadLine.set(t); return nil }
func (p *pipe) SetWriteDeadLine(t time.Time) error { p.wdeadLine.set(t); return nil }

type chanDeadLine struct {
	clock clock.Clock

	t *clock.Timer
	m sync.Mutex

	closed chan struct{}
}

func newChanDeadLine(clock clock.Clock) *chanDeadLine {
	return &chanDeadLine{
		clock:  clock,
		closed: make(chan struct{}),
	}
}

func (d *chanDeadLine) set(t time.Time) {
	d.m.Lock()
	defer d.m.Unlock()

	d.stopLocked()

	if isClosed(d.closed) {
		d.closed = make(chan struct{})
	}

	if t.IsZero() {
		// zero value means no limit.
		return
	}

	if d.clock.Until(t) <= 0 {
		close(d.closed)
		return
	}

	closed := d.closed
	d.t = d.clock.AfterFunc(d.clock.Until(t), func() {
		close(closed)
	})
}

func (d *chanDeadLine) stop() {
	d.m.Lock()
	defer d.m.Unlock()
	d.stopLocked()
}

func (d *chanDeadLine) stopLocked() {
	if d.t != nil {
		d.t.Stop()
	}
	d.t = nil
}

func (d *chanDeadLine) wait() <-chan struct{} {
	d.m.Lock()
	defer d.m.Unlock()
	return d.closed
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c: // c will only fire at closed state.
		return true
	default:
		return false
	}
}
