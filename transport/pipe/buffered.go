package pipe

import (
	"bytes"
	"io"
	"sync"
	"time"

	"http-client/transport"

	"github.com/benbjohnson/clock"
)

// See:
// - https://github.com/golang/go/issues/24205
// - https://github.com/golang/go/issues/34502
type bufferedPipe struct {
	addr transport.Addr

	buf *bytes.Buffer // protected by in.

	in, out  sync.Cond
	serialMu sync.Mutex // For serialized write operations.

	_closed  bool
	closedMu sync.Mutex
	onClose  func()

	rdeadLine, wdeadLine *deadline

	// the opposite pipe.
	counterpart *bufferedPipe
}

var _ transport.BufferedConn = (*bufferedPipe)(nil)

// BufferedPipe creates a pair of pipes. each of pipes will be asynchronous, buffered.
// Because BufferedPipe only writes/reads data through the buffer, bufSize MUST be more than 0.
func BufferedPipe(addr1, addr2 transport.Addr, clock clock.Clock, bufSize uint) (c1, c2 *bufferedPipe) {
	if bufSize == 0 {
		panic("buffer size cannot be 0")
	}

	newPipe := func(addr transport.Addr) *bufferedPipe {
		p := &bufferedPipe{
			buf:       bytes.NewBuffer(make([]byte, 0, bufSize)),
			rdeadLine: newDeadLine(clock),
			wdeadLine: newDeadLine(clock),
			addr:      addr,
		}
		p.in.L, p.out.L = &sync.Mutex{}, &sync.Mutex{}
		return p
	}

	c1, c2 = newPipe(addr1), newPipe(addr2)
	c1.counterpart, c2.counterpart = c2, c1
	return
}

func (p *bufferedPipe) ReadBufSize() uint          { return uint(p.buf.Cap()) }
func (p *bufferedPipe) WriteBufSize() uint         { return uint(p.counterpart.buf.Cap()) }
func (p *bufferedPipe) LocalAddr() transport.Addr  { return p.addr }
func (p *bufferedPipe) RemoteAddr() transport.Addr { return p.counterpart.addr }

func (p *bufferedPipe) Close() error {
	p.closedMu.Lock()
	wasClosed := p._closed
	p._closed = true
	p.closedMu.Unlock()

	if wasClosed {
		return nil
	}

	p.rdeadLine.set(time.Time{}, nil)
	p.wdeadLine.set(time.Time{}, nil)

	for _, c := range []*sync.Cond{&p.in, &p.out, &p.counterpart.in, &p.counterpart.out} {
		c.L.Lock()
		c.Broadcast()
		c.L.Unlock()
	}

	if p.onClose != nil {
		p.onClose()
	}
	return nil
}

// Read drains the buffer even after the counterpart is closed, then returns io.EOF.
func (p *bufferedPipe) Read(b []byte) (n int, err error) {
	defer func() {
		if err != nil {
			return
		}
		// If buffer was full and counterpart was waiting,
		// we must notify them that it is now available to write.
		p.counterpart.out.L.Lock()
		p.counterpart.notifyWrite()
		p.counterpart.out.L.Unlock()
	}()

	p.in.L.Lock()
	defer p.in.L.Unlock()

	for {
		if p.closed() {
			return 0, transport.ErrConnClosed
		}

		// We must check for deadline first.
		if p.rdeadLine.exceeded() {
			return 0, transport.ErrDeadLineExceeded
		}

		if p.buf.Len() > 0 {
			return p.buf.Read(b)
		}

		if p.counterpart.closed() {
			return 0, io.EOF
		}

		// Wait until one of conditions is satisfied.
		p.in.Wait()
	}
}

func (p *bufferedPipe) Write(b []byte) (n int, err error) {
	// Serialize write operations to prevent interleaving write.
	p.serialMu.Lock()
	defer p.serialMu.Unlock()

	p.out.L.Lock()
	defer p.out.L.Unlock()

	// Ensure all the bytes are sent.
	nn := 0
	for once := true; once || len(b) > 0; once = false {
		if p.closed() || p.counterpart.closed() {
			return nn, transport.ErrConnClosed
		}

		if p.wdeadLine.exceeded() {
			return nn, transport.ErrDeadLineExceeded
		}

		// It might race with counterpart's read. So acquire lock.
		p.counterpart.in.L.Lock()

		// We don't want counterpart's buffer to grow.
		remain := p.counterpart.buf.Cap() - p.counterpart.buf.Len()

		if canWrite := min(len(b), remain); canWrite > 0 {
			// If counterpart's buffer was empty, and its read was waiting,
			// We signal them to start reading. Since we hold its read lock, read will start after write.
			p.counterpart.notifyRead()

			p.counterpart.buf.Write(b[:canWrite])
			b = b[canWrite:]
			nn += canWrite

			p.counterpart.in.L.Unlock()
			continue
		}

		p.counterpart.in.L.Unlock()
		p.out.Wait()
	}

	return nn, nil
}

func (p *bufferedPipe) closed() bool {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	return p._closed
}

// notifyRead's caller already holds lock. So no need to hold it in here.
func (p *bufferedPipe) notifyRead()  { p.in.Signal() }
func (p *bufferedPipe) notifyWrite() { p.out.Signal() }

func (p *bufferedPipe) SetReadDeadLine(t time.Time) error {
	p.rdeadLine.set(t, func() { p.in.L.Lock(); p.in.Broadcast(); p.in.L.Unlock() })
	return nil
}

func (p *bufferedPipe) SetWriteDeadLine(t time.Time) error {
	p.wdeadLine.set(t, func() { p.out.L.Lock(); p.out.Broadcast(); p.out.L.Unlock() })
	return nil
}

func newDeadLine(clock clock.Clock) *deadline { return &deadline{clock: clock} }

type deadline struct {
	clock clock.Clock
	m     sync.Mutex

	timer *clock.Timer
	t     time.Time
}

func (d *deadline) set(t time.Time, onExceed func()) {
	d.m.Lock()
	defer d.m.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.t = t

	if !t.IsZero() && onExceed != nil {
		d.timer = d.clock.AfterFunc(d.clock.Until(t), onExceed)
	}
}

func (d *deadline) exceeded() bool {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t.IsZero() {
		return false
	}

	return d.clock.Until(d.t) <= 0
}
