package semantic

import (
	"testing"

	"http-client/application/http/stream"
	"http-client/lib/fault"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDefaults(t *testing.T) {
	var m Message

	assert.Equal(t, "1.1", m.ProtocolVersion())
	assert.Equal(t, 0, m.Headers().Len())

	body := m.Body()
	require.NotNil(t, body)
	size, ok := body.Size()
	assert.True(t, ok)
	assert.Zero(t, size)
	assert.True(t, body.EOF())
}

func TestMessageWithProtocolVersion(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected string
		changed  bool
		wantErr  bool
	}{
		{desc: "same version", input: "1.1", expected: "1.1"},
		{desc: "empty means default", input: "", expected: "1.1"},
		{desc: "new version", input: "1.0", expected: "1.0", changed: true},
		{desc: "prefixed", input: "HTTP/1.0", wantErr: true},
		{desc: "garbage", input: "one", wantErr: true},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			m, changed, err := Message{}.withProtocolVersion(tc.input)
			if tc.wantErr {
				assert.True(t, errors.Is(err, fault.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.expected, m.ProtocolVersion())
		})
	}
}

func TestMessageWithBody(t *testing.T) {
	body := stream.NewText("hello")

	m, changed := Message{}.withBody(body)
	assert.True(t, changed)
	assert.Same(t, body, m.Body())

	_, changed = m.withBody(body)
	assert.False(t, changed)
}
