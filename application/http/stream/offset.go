package stream

import (
	"io"

	"http-client/application/http"
	"http-client/lib/fault"
)

// Offset presents another stream from a fixed byte offset onward.
// Positions reported and taken by Offset are relative to that offset.
type Offset struct {
	inner  Stream
	offset int64
}

var _ Stream = (*Offset)(nil)

func NewOffset(inner Stream, offset int64) *Offset {
	return &Offset{inner: inner, offset: offset}
}

func (o *Offset) PartHeaders() []http.Field {
	if carrier, ok := o.inner.(PartHeaderCarrier); ok {
		return carrier.PartHeaders()
	}
	return nil
}

// assertPositioned fails while the inner stream is positioned before the offset.
func (o *Offset) assertPositioned(op string) error {
	pos, err := o.Tell()
	if err != nil {
		return err
	}
	if pos < 0 {
		return fault.Runtime("cannot %s: positioned %d bytes before offset", op, -pos)
	}
	return nil
}

func (o *Offset) Read(p []byte) (int, error) {
	if err := o.assertPositioned("read from stream"); err != nil {
		return 0, err
	}
	return o.inner.Read(p)
}

func (o *Offset) ReadN(n int) ([]byte, error) {
	if err := o.assertPositioned("read from stream"); err != nil {
		return nil, err
	}
	return o.inner.ReadN(n)
}

func (o *Offset) Contents() ([]byte, error) {
	if err := o.assertPositioned("get contents from stream"); err != nil {
		return nil, err
	}
	return o.inner.Contents()
}

func (o *Offset) Write(p []byte) (int, error) {
	if err := o.assertPositioned("write to stream"); err != nil {
		return 0, err
	}
	return o.inner.Write(p)
}

func (o *Offset) EOF() bool { return o.inner.EOF() }

func (o *Offset) Size() (int64, bool) {
	size, ok := o.inner.Size()
	if !ok {
		return 0, false
	}
	return size - o.offset, true
}

func (o *Offset) Tell() (int64, error) {
	pos, err := o.inner.Tell()
	if err != nil {
		return 0, err
	}
	return pos - o.offset, nil
}

// Seek translates absolute positions. Relative seeks are passed through.
func (o *Offset) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart {
		offset += o.offset
	}
	pos, err := o.inner.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	return pos - o.offset, nil
}

func (o *Offset) Rewind() error {
	_, err := o.Seek(0, io.SeekStart)
	return err
}

func (o *Offset) Close() error      { return o.inner.Close() }
func (o *Offset) Detach() io.Closer { return o.inner.Detach() }

func (o *Offset) Readable() bool { return o.inner.Readable() }
func (o *Offset) Writable() bool { return o.inner.Writable() }
func (o *Offset) Seekable() bool { return o.inner.Seekable() }
