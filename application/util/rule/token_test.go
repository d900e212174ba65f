package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidToken(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{
			desc:     "valid token with alphabets",
			input:    "Token",
			expected: true,
		},
		{
			desc:     "valid token with digits",
			input:    "Token123",
			expected: true,
		},
		{
			desc:     "valid token with special characters",
			input:    "Token-._~",
			expected: true,
		},
		{
			desc:     "invalid token with space",
			input:    "Token 123",
			expected: false,
		},
		{
			desc:     "invalid token with special characters",
			input:    "Token@123",
			expected: false,
		},
		{
			desc:     "invalid token with colon",
			input:    "Host:",
			expected: false,
		},
		{
			desc:     "empty token",
			input:    "",
			expected: false,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidToken(tc.input))
		})
	}
}

func TestIsValidFieldValue(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{desc: "plain", input: "text/html", expected: true},
		{desc: "interior whitespace", input: "a b\tc", expected: true},
		{desc: "obs-text", input: "caf\xe9", expected: true},
		{desc: "empty", input: "", expected: true},
		{desc: "CRLF injection", input: "a\r\nX-Evil: 1", expected: false},
		{desc: "NUL", input: "a\x00", expected: false},
		{desc: "DEL", input: "a\x7f", expected: false},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidFieldValue(tc.input))
		})
	}
}

func TestTrimOWS(t *testing.T) {
	assert.Equal(t, "value", TrimOWS(" \tvalue\t "))
	assert.Equal(t, "a b", TrimOWS("a b"))
}

func TestCamelToSnake(t *testing.T) {
	testcases := []struct {
		input    string
		expected string
	}{
		{input: "verifyPeer", expected: "verify_peer"},
		{input: "allowSelfSigned", expected: "allow_self_signed"},
		{input: "cafile", expected: "cafile"},
		{input: "local_cert", expected: "local_cert"},
		{input: "peerName", expected: "peer_name"},
		{input: "SNI", expected: "SNI"},
	}
	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, CamelToSnake(tc.input))
		})
	}
}
