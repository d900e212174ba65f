package stream

import (
	"io"

	iolib "http-client/lib/io"

	"github.com/pkg/errors"
)

type SocketOptions struct {
	// ContentLength bounds reads, and is reported as the size when the
	// descriptor can't report one. It applies when positive or when
	// HasContentLength is set.
	ContentLength int64
	// HasContentLength makes a zero ContentLength an empty body rather than
	// an unbounded one.
	HasContentLength bool
}

func (o SocketOptions) bounded() bool { return o.HasContentLength || o.ContentLength > 0 }

// Socket wraps a raw descriptor, typically a network connection.
type Socket struct {
	partHeaders
	detachable

	rw    io.ReadWriteCloser
	r     io.Reader
	limit *iolib.LimitedReader
	opts  SocketOptions

	pos int64
	eof bool
}

var _ Stream = (*Socket)(nil)

func NewSocket(rw io.ReadWriteCloser, opts SocketOptions) *Socket {
	s := &Socket{rw: rw, opts: opts}
	s.resetReader()
	return s
}

func (s *Socket) resetReader() {
	s.r = s.rw
	s.limit = nil
	if s.opts.bounded() {
		remaining := max(s.opts.ContentLength-s.pos, 0)
		s.limit = iolib.LimitReader(s.rw, uint(remaining))
		s.r = s.limit
		s.eof = remaining == 0
	}
}

func (s *Socket) Read(p []byte) (int, error) {
	if err := s.check("read from stream"); err != nil {
		return 0, err
	}
	if s.eof {
		return 0, io.EOF
	}

	n, err := s.r.Read(p)
	s.pos += int64(n)
	if s.limit != nil && s.limit.Exhausted() {
		s.eof = true
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		return n, asRuntime(err, "read from stream")
	}

	return n, nil
}

func (s *Socket) ReadN(n int) ([]byte, error) {
	if err := s.check("read from stream"); err != nil {
		return nil, err
	}
	return readN(s, n)
}

func (s *Socket) Contents() ([]byte, error) {
	if err := s.check("get contents from stream"); err != nil {
		return nil, err
	}
	return readAll(s)
}

func (s *Socket) EOF() bool { return s.detached || s.eof }

// Size reports the size from the descriptor's stat info, falling back to
// the ContentLength hint when stat reports nothing.
func (s *Socket) Size() (int64, bool) {
	if s.detached {
		return 0, false
	}
	if size, ok := statSize(s.rw); ok {
		return size, true
	}
	if s.opts.bounded() {
		return max(s.opts.ContentLength, 0), true
	}
	return 0, false
}

func (s *Socket) Tell() (int64, error) {
	if err := s.check("get stream offset"); err != nil {
		return 0, err
	}
	return s.pos, nil
}

func (s *Socket) Seek(offset int64, whence int) (int64, error) {
	if err := s.check("seek"); err != nil {
		return 0, err
	}
	seeker, ok := s.rw.(io.Seeker)
	if !ok {
		return 0, errNotSeekable()
	}

	pos, err := seeker.Seek(offset, whence)
	if err != nil {
		return 0, asRuntime(err, "seek")
	}

	s.pos, s.eof = pos, false
	s.resetReader()

	return pos, nil
}

func (s *Socket) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

func (s *Socket) Write(p []byte) (int, error) {
	if err := s.check("write to stream"); err != nil {
		return 0, err
	}
	n, err := iolib.WriteFull(s.rw, p)
	if err != nil {
		return int(n), asRuntime(err, "write to stream")
	}
	return int(n), nil
}

// Close closes the descriptor. Closing twice is a no-op.
func (s *Socket) Close() error {
	if s.detached {
		return nil
	}
	s.detached = true
	return asRuntime(s.rw.Close(), "close stream")
}

func (s *Socket) Detach() io.Closer {
	s.detached = true
	return s.rw
}

func (s *Socket) Readable() bool { return true }
func (s *Socket) Writable() bool { return true }

func (s *Socket) Seekable() bool {
	_, ok := s.rw.(io.Seeker)
	return ok
}
