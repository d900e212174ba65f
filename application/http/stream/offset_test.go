package stream

import (
	"io"
	"testing"

	"http-client/lib/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	inner := NewText("0123456789")
	_, err := inner.Seek(4, io.SeekStart)
	require.NoError(t, err)

	view := NewOffset(inner, 4)

	size, ok := view.Size()
	assert.True(t, ok)
	assert.Equal(t, int64(6), size)

	pos, err := view.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	b, err := view.ReadN(2)
	require.NoError(t, err)
	assert.Equal(t, "45", string(b))

	pos, err = view.Seek(3, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)

	b, err = view.Contents()
	require.NoError(t, err)
	assert.Equal(t, "789", string(b))
	assert.True(t, view.EOF())

	require.NoError(t, view.Rewind())
	b, err = view.Contents()
	require.NoError(t, err)
	assert.Equal(t, "456789", string(b))
}

func TestOffsetBeforeStart(t *testing.T) {
	inner := NewText("0123456789")
	view := NewOffset(inner, 4)

	pos, err := view.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(-4), pos)

	_, err = view.ReadN(1)
	assert.ErrorIs(t, err, fault.ErrRuntime)
	_, err = view.Contents()
	assert.ErrorIs(t, err, fault.ErrRuntime)
	_, err = view.Write([]byte("x"))
	assert.ErrorIs(t, err, fault.ErrRuntime)
}

func TestOffsetDelegates(t *testing.T) {
	inner := NewTextMIME("{}", MIMEJSON)
	view := NewOffset(inner, 0)

	assert.Equal(t, inner.Readable(), view.Readable())
	assert.Equal(t, inner.Writable(), view.Writable())
	assert.Equal(t, inner.Seekable(), view.Seekable())
	assert.Equal(t, inner.PartHeaders(), view.PartHeaders())

	require.NoError(t, view.Close())
	_, err := inner.ReadN(1)
	assert.ErrorIs(t, err, fault.ErrRuntime)
}
