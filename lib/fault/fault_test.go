package fault

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	err := InvalidArgument("bad port %d", 70000)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "bad port 70000")

	err = Runtime("stream is detached")
	assert.ErrorIs(t, err, ErrRuntime)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestKind(t *testing.T) {
	testcases := []struct {
		desc     string
		input    error
		expected error
	}{
		{desc: "invalid argument", input: InvalidArgument("x"), expected: ErrInvalidArgument},
		{desc: "wrapped runtime", input: errors.Wrap(Runtime("x"), "outer"), expected: ErrRuntime},
		{desc: "network", input: errors.Wrap(ErrNetwork, "dial"), expected: ErrNetwork},
		{desc: "foreign", input: errors.New("foreign"), expected: nil},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, Kind(tc.input))
		})
	}
}
