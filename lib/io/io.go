package iolib

import (
	"io"

	"github.com/pkg/errors"
)

// WriteFull writes buf to w, retrying short writes until all bytes are
// written or w fails.
func WriteFull(w io.Writer, buf []byte) (uint, error) {
	total := uint(0)
	for total < uint(len(buf)) {
		n, err := w.Write(buf[total:])
		total += uint(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// ReadUpTo reads until n bytes are read or r reaches end-of-data.
// Reaching the end early is not an error; the returned slice is just shorter.
func ReadUpTo(r io.Reader, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return buf[:read], err
	}

	return buf[:read], nil
}
