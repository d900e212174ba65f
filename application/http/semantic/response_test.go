package semantic

import (
	"testing"
	"time"

	"http-client/application/http/stream"
	"http-client/lib/fault"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse(t *testing.T) {
	testcases := []struct {
		desc     string
		code     uint
		reason   string
		expected string
		wantErr  bool
	}{
		{desc: "default reason", code: 404, expected: "Not Found"},
		{desc: "explicit reason", code: 200, reason: "Fine", expected: "Fine"},
		{desc: "unregistered code", code: 299, expected: ""},
		{desc: "too small", code: 99, wantErr: true},
		{desc: "too large", code: 600, wantErr: true},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			res, err := NewResponse(tc.code, Headers{}, nil, "", tc.reason)
			if tc.wantErr {
				assert.True(t, errors.Is(err, fault.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.code, res.StatusCode())
			assert.Equal(t, tc.expected, res.ReasonPhrase())
			assert.Equal(t, "1.1", res.ProtocolVersion())
		})
	}
}

func TestResponseWithStatus(t *testing.T) {
	res, err := NewResponse(200, Headers{}, nil, "1.1", "")
	require.NoError(t, err)

	same, err := res.WithStatus(200, "")
	require.NoError(t, err)
	assert.Same(t, res, same)

	moved, err := res.WithStatus(301, "")
	require.NoError(t, err)
	assert.Equal(t, uint(301), moved.StatusCode())
	assert.Equal(t, "Moved Permanently", moved.ReasonPhrase())
	assert.Equal(t, uint(200), res.StatusCode())

	_, err = res.WithStatus(1000, "")
	assert.True(t, errors.Is(err, fault.ErrInvalidArgument))
}

func TestResponseMutators(t *testing.T) {
	res, err := NewResponse(200, Headers{}, nil, "1.1", "")
	require.NoError(t, err)

	withHeader, err := res.WithHeader("Content-Type", "text/plain")
	require.NoError(t, err)
	assert.NotSame(t, res, withHeader)
	assert.False(t, res.HasHeader("content-type"))
	assert.Equal(t, "text/plain", withHeader.HeaderLine("content-type"))

	again, err := withHeader.WithHeader("Content-Type", "text/plain")
	require.NoError(t, err)
	assert.Same(t, withHeader, again)

	assert.Same(t, withHeader, withHeader.WithoutHeader("missing"))
	assert.False(t, withHeader.WithoutHeader("Content-Type").HasHeader("Content-Type"))

	body := stream.NewText("x")
	withBody := res.WithBody(body)
	assert.Same(t, body, withBody.Body())
	assert.Same(t, withBody, withBody.WithBody(body))

	_, err = res.WithHeader("Bad Name", "x")
	assert.True(t, errors.Is(err, fault.ErrInvalidArgument))
}

func TestResponseDate(t *testing.T) {
	res, err := NewResponse(200, Headers{}, nil, "1.1", "")
	require.NoError(t, err)

	_, ok, err := res.Date()
	require.NoError(t, err)
	assert.False(t, ok)

	res, err = res.WithHeader("Date", "Sun, 06 Nov 1994 08:49:37 GMT")
	require.NoError(t, err)

	date, ok, err := res.Date()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, date.Equal(time.Date(1994, time.November, 6, 8, 49, 37, 0, time.UTC)))

	res, err = res.WithHeader("Date", "yesterday")
	require.NoError(t, err)
	_, _, err = res.Date()
	assert.Error(t, err)
}
