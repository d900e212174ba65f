package stream

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"http-client/lib/fault"

	"github.com/gabriel-vasile/mimetype"
)

// MIMEFallback is used when the file content can't be sniffed.
const MIMEFallback = "application/binary"

// File is a read-only stream over a file on disk.
type File struct {
	partHeaders
	detachable

	f        *os.File
	filename string
}

var (
	_ Stream = (*File)(nil)
	_ Named  = (*File)(nil)
)

// NewFile opens path for reading. filename is the name reported to the
// server in multipart bodies and defaults to the base name of path.
func NewFile(path, filename string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.InvalidArgument("cannot open file: %s", err)
	}

	if filename == "" {
		filename = filepath.Base(path)
	}

	mime := MIMEFallback
	if detected, err := mimetype.DetectFile(path); err == nil {
		// Parameters such as charset are left out.
		mime, _, _ = strings.Cut(detected.String(), ";")
	}

	file := &File{f: f, filename: filename}
	file.SetPartHeader("Content-Type", mime)

	return file, nil
}

func (f *File) ClientFilename() string { return f.filename }

func (f *File) Read(p []byte) (int, error) {
	if err := f.check("read from stream"); err != nil {
		return 0, err
	}
	n, err := f.f.Read(p)
	if err != nil && err != io.EOF {
		return n, asRuntime(err, "read from stream")
	}
	return n, err
}

func (f *File) ReadN(n int) ([]byte, error) {
	if err := f.check("read from stream"); err != nil {
		return nil, err
	}
	return readN(f, n)
}

func (f *File) Contents() ([]byte, error) {
	if err := f.check("get contents from stream"); err != nil {
		return nil, err
	}
	return readAll(f)
}

func (f *File) EOF() bool {
	if f.detached {
		return true
	}
	pos, err := f.Tell()
	if err != nil {
		return true
	}
	size, ok := f.Size()
	return !ok || pos >= size
}

func (f *File) Size() (int64, bool) {
	if f.detached {
		return 0, false
	}
	info, err := f.f.Stat()
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func (f *File) Tell() (int64, error) {
	if err := f.check("get stream offset"); err != nil {
		return 0, err
	}
	pos, err := f.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, asRuntime(err, "get stream offset")
	}
	return pos, nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.check("seek"); err != nil {
		return 0, err
	}
	pos, err := f.f.Seek(offset, whence)
	if err != nil {
		return 0, asRuntime(err, "seek")
	}
	return pos, nil
}

func (f *File) Rewind() error {
	_, err := f.Seek(0, io.SeekStart)
	return err
}

func (f *File) Write([]byte) (int, error) { return 0, errNotWritable() }

func (f *File) Close() error {
	if f.detached {
		return nil
	}
	f.detached = true
	return asRuntime(f.f.Close(), "close stream")
}

func (f *File) Detach() io.Closer {
	f.detached = true
	return f.f
}

func (f *File) Readable() bool { return true }
func (f *File) Writable() bool { return false }
func (f *File) Seekable() bool { return true }
