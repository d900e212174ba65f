package semantic

import (
	"testing"

	"http-client/application/http/stream"
	"http-client/application/util/uri"
	"http-client/lib/fault"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	testcases := []struct {
		desc    string
		method  Method
		rawURI  string
		headers map[string][]string

		expectedHost  string
		expectedNames []string
		wantErr       bool
	}{
		{
			desc:          "host from uri",
			method:        MethodGet,
			rawURI:        "http://example.com/",
			expectedHost:  "example.com",
			expectedNames: []string{"Host"},
		},
		{
			desc:          "non-default port is kept",
			method:        MethodGet,
			rawURI:        "http://example.com:8080/",
			expectedHost:  "example.com:8080",
			expectedNames: []string{"Host"},
		},
		{
			desc:          "default port is dropped",
			method:        MethodGet,
			rawURI:        "https://example.com:443/",
			expectedHost:  "example.com",
			expectedNames: []string{"Host"},
		},
		{
			desc:          "host goes first",
			method:        MethodPost,
			rawURI:        "http://example.com/",
			headers:       map[string][]string{"Accept": {"*/*"}},
			expectedHost:  "example.com",
			expectedNames: []string{"Host", "Accept"},
		},
		{
			desc:          "explicit host header wins",
			method:        MethodGet,
			rawURI:        "http://example.com/",
			headers:       map[string][]string{"host": {"other.com"}},
			expectedHost:  "other.com",
			expectedNames: []string{"host"},
		},
		{
			desc:   "relative uri has no host",
			method: MethodGet,
			rawURI: "/path",
		},
		{
			desc:    "invalid method",
			method:  "GE T",
			rawURI:  "http://example.com/",
			wantErr: true,
		},
		{
			desc:    "invalid uri",
			method:  MethodGet,
			rawURI:  "http://exa mple.com/",
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			headers, err := NewHeaders(tc.headers)
			require.NoError(t, err)

			req, err := NewRequest(tc.method, tc.rawURI, headers, nil)
			if tc.wantErr {
				assert.True(t, errors.Is(err, fault.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.expectedHost, req.HeaderLine("Host"))
			if tc.expectedNames != nil {
				assert.Equal(t, tc.expectedNames, req.Headers().Names())
			}
			assert.Equal(t, tc.method, req.Method())
		})
	}
}

func TestRequestTarget(t *testing.T) {
	req, err := NewRequest(MethodGet, "http://h/p?q", Headers{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "/p?q", req.RequestTarget())

	derived := []struct {
		desc     string
		rawURI   string
		expected string
	}{
		{desc: "empty path", rawURI: "http://h", expected: "/"},
		{desc: "empty path with query", rawURI: "http://h?a=b", expected: "/?a=b"},
		{desc: "fragment is dropped", rawURI: "http://h/x#frag", expected: "/x"},
	}
	for _, tc := range derived {
		t.Run(tc.desc, func(t *testing.T) {
			changed, err := req.WithURI(uri.MustParse(tc.rawURI), false)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, changed.RequestTarget())
		})
	}

	explicit, err := req.WithRequestTarget("*")
	require.NoError(t, err)
	assert.Equal(t, "*", explicit.RequestTarget())

	moved, err := explicit.WithURI(uri.MustParse("http://other/x?y"), false)
	require.NoError(t, err)
	assert.Equal(t, "*", moved.RequestTarget())

	// The original keeps deriving.
	assert.Equal(t, "/p?q", req.RequestTarget())

	_, err = req.WithRequestTarget("/a b")
	assert.True(t, errors.Is(err, fault.ErrInvalidArgument))
}

func TestRequestWithURI(t *testing.T) {
	headers, err := NewHeaders(map[string][]string{"Accept": {"*/*"}})
	require.NoError(t, err)
	req, err := NewRequest(MethodGet, "http://a.com/", headers, nil)
	require.NoError(t, err)

	same, err := req.WithURI(uri.MustParse("http://a.com/"), false)
	require.NoError(t, err)
	assert.Same(t, req, same)

	moved, err := req.WithURI(uri.MustParse("http://b.com:81/"), false)
	require.NoError(t, err)
	assert.Equal(t, "b.com:81", moved.HeaderLine("Host"))
	assert.Equal(t, []string{"Host", "Accept"}, moved.Headers().Names())
	assert.Equal(t, "a.com", req.HeaderLine("Host"))

	preserved, err := req.WithURI(uri.MustParse("http://b.com/"), true)
	require.NoError(t, err)
	assert.Equal(t, "a.com", preserved.HeaderLine("Host"))
	assert.Equal(t, "b.com", preserved.URI().Host())

	// Nothing to preserve.
	bare := req.WithoutHeader("Host")
	preserved, err = bare.WithURI(uri.MustParse("http://c.com/"), true)
	require.NoError(t, err)
	assert.Equal(t, "c.com", preserved.HeaderLine("Host"))
}

func TestRequestMutators(t *testing.T) {
	req, err := NewRequest(MethodGet, "http://a.com/", Headers{}, nil)
	require.NoError(t, err)

	same, err := req.WithMethod(MethodGet)
	require.NoError(t, err)
	assert.Same(t, req, same)

	post, err := req.WithMethod(MethodPost)
	require.NoError(t, err)
	assert.Equal(t, MethodPost, post.Method())
	assert.Equal(t, MethodGet, req.Method())

	_, err = req.WithMethod("BAD METHOD")
	assert.True(t, errors.Is(err, fault.ErrInvalidArgument))

	added, err := req.WithAddedHeader("Accept", "a")
	require.NoError(t, err)
	added, err = added.WithAddedHeader("accept", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, added.Header("ACCEPT"))
	assert.False(t, req.HasHeader("Accept"))

	v10, err := req.WithProtocolVersion("1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0", v10.ProtocolVersion())
	assert.Equal(t, "1.1", req.ProtocolVersion())

	body := stream.NewText("payload")
	withBody := req.WithBody(body)
	assert.Same(t, body, withBody.Body())
	assert.NotSame(t, req, withBody)
	assert.Same(t, withBody, withBody.WithBody(body))
}
