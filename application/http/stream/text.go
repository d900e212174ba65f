package stream

import (
	"bytes"
	"io"

	"http-client/lib/fault"

	"github.com/goccy/go-json"
)

const (
	MIMETextPlain = "text/plain"
	MIMEJSON      = "application/json"
)

// Text is a read-only in-memory stream. Its content is fixed at creation.
type Text struct {
	partHeaders
	detachable

	r    *bytes.Reader
	size int64
}

var _ Stream = (*Text)(nil)

func NewText(s string) *Text { return NewTextMIME(s, MIMETextPlain) }

// NewTextMIME creates a text stream carrying mime as its Content-Type.
func NewTextMIME(s, mime string) *Text {
	t := &Text{r: bytes.NewReader([]byte(s)), size: int64(len(s))}
	t.SetPartHeader("Content-Type", mime)
	return t
}

func (t *Text) Read(p []byte) (int, error) {
	if err := t.check("read from stream"); err != nil {
		return 0, err
	}
	return t.r.Read(p)
}

func (t *Text) ReadN(n int) ([]byte, error) {
	if err := t.check("read from stream"); err != nil {
		return nil, err
	}
	return readN(t.r, n)
}

func (t *Text) Contents() ([]byte, error) {
	if err := t.check("get contents from stream"); err != nil {
		return nil, err
	}
	return readAll(t.r)
}

func (t *Text) EOF() bool { return t.detached || t.r.Len() == 0 }

func (t *Text) Size() (int64, bool) { return t.size, true }

func (t *Text) Tell() (int64, error) {
	if err := t.check("get stream offset"); err != nil {
		return 0, err
	}
	return t.size - int64(t.r.Len()), nil
}

func (t *Text) Seek(offset int64, whence int) (int64, error) {
	if err := t.check("seek"); err != nil {
		return 0, err
	}
	pos, err := t.r.Seek(offset, whence)
	if err != nil {
		return 0, fault.Runtime("cannot seek to %d: %s", offset, err)
	}
	return pos, nil
}

func (t *Text) Rewind() error {
	_, err := t.Seek(0, io.SeekStart)
	return err
}

func (t *Text) Write([]byte) (int, error) { return 0, errNotWritable() }

func (t *Text) Close() error {
	t.detached = true
	return nil
}

func (t *Text) Detach() io.Closer {
	t.detached = true
	return io.NopCloser(t.r)
}

func (t *Text) Readable() bool { return true }
func (t *Text) Writable() bool { return false }
func (t *Text) Seekable() bool { return true }

// JSON is a text stream holding the JSON encoding of a value.
type JSON struct{ *Text }

func NewJSON(v any) (*JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fault.InvalidArgument("unable to encode data to JSON: %s", err)
	}
	return &JSON{Text: NewTextMIME(string(b), MIMEJSON)}, nil
}
