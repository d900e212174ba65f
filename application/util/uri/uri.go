package uri

import (
	"strconv"
	"strings"

	"http-client/lib/fault"

	"github.com/pkg/errors"
)

// URI is an immutable RFC 3986 reference.
//
// User information, path, query and fragment are kept percent-encoded.
// The port is dropped whenever it equals the default port of the scheme,
// so two URIs naming the same origin serialize to the same authority.
// The zero value is the empty relative reference.
type URI struct {
	scheme string

	hasAuthority bool
	userInfo     string
	host         string
	port         uint16
	hasPort      bool

	path     string
	query    string
	fragment string
}

// DefaultPort returns the well-known port of scheme, or 0 if it has none.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

func (u URI) Scheme() string   { return u.scheme }
func (u URI) UserInfo() string { return u.userInfo }
func (u URI) Host() string     { return u.host }
func (u URI) Path() string     { return u.path }
func (u URI) Query() string    { return u.query }
func (u URI) Fragment() string { return u.fragment }

// Port returns the explicit port. ok is false when the default port of the
// scheme applies.
func (u URI) Port() (port uint16, ok bool) { return u.port, u.hasPort }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func (u URI) IsRelativeRef() bool {
	return u.scheme == ""
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.3
func (u URI) IsAbsoluteURI() bool {
	return u.scheme != "" && u.fragment == ""
}

func (u URI) Equal(other URI) bool { return u == other }

// Authority returns "[userinfo@]host[:port]", or "" when there is no host.
func (u URI) Authority() string {
	if u.host == "" {
		return ""
	}
	return u.authority()
}

func (u URI) authority() string {
	b := new(strings.Builder)
	if u.userInfo != "" {
		b.WriteString(u.userInfo)
		b.WriteByte('@')
	}
	b.WriteString(u.host)
	if u.hasPort {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(u.port), 10))
	}

	return b.String()
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u URI) String() string {
	b := new(strings.Builder)
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteByte(':')
	}

	if u.hasAuthority {
		b.WriteString("//")
		b.WriteString(u.authority())
	}

	b.WriteString(fixPath(u.path, u.hasAuthority))

	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}

	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}

	return b.String()
}

// fixPath keeps the serialized form unambiguous: a rootless path can't follow
// an authority, and a path starting with "//" can't appear without one.
func fixPath(path string, hasAuthority bool) string {
	if path == "" {
		return path
	}
	if hasAuthority && path[0] != '/' {
		return "/" + path
	}
	if !hasAuthority && strings.HasPrefix(path, "//") {
		return "/" + strings.TrimLeft(path, "/")
	}
	return path
}

func (u URI) WithScheme(scheme string) (URI, error) {
	scheme = strings.ToLower(scheme)
	if scheme == u.scheme {
		return u, nil
	}
	if scheme != "" {
		if err := assertValidScheme(scheme); err != nil {
			return URI{}, fault.InvalidArgument("scheme %q: %s", scheme, err)
		}
	}

	u.scheme = scheme
	u.normalizePort()

	return u, nil
}

// WithUserInfo sets the user information. password is appended after a
// colon when it is not empty.
func (u URI) WithUserInfo(user, password string) URI {
	info := escape(user, encodeUserInfo)
	if password != "" {
		info += ":" + escape(password, encodeUserInfo)
	}
	if info == u.userInfo {
		return u
	}

	u.userInfo = info
	if info != "" {
		u.hasAuthority = true
	}

	return u
}

func (u URI) WithHost(host string) (URI, error) {
	host = strings.ToLower(host)
	if host == u.host {
		return u, nil
	}
	if err := assertValidHost(host); err != nil {
		return URI{}, fault.InvalidArgument("host %q: %s", host, err)
	}

	u.host = host
	u.hasAuthority = host != "" || u.userInfo != "" || u.hasPort

	return u, nil
}

// WithPort sets an explicit port. Values outside [0, 65535] are rejected.
func (u URI) WithPort(port int) (URI, error) {
	if port < 0 || port > 0xFFFF {
		return URI{}, fault.InvalidArgument("invalid port: %d. must be between 0 and 65535", port)
	}

	next := u
	next.port, next.hasPort = uint16(port), true
	next.normalizePort()
	if next == u {
		return u, nil
	}

	return next, nil
}

// WithoutPort removes the explicit port so the scheme default applies.
func (u URI) WithoutPort() URI {
	if !u.hasPort {
		return u
	}
	u.port, u.hasPort = 0, false
	return u
}

func (u URI) WithPath(path string) URI {
	path = escape(path, encodePath)
	if path == u.path {
		return u
	}
	u.path = path
	return u
}

func (u URI) WithQuery(query string) URI {
	query = escape(strings.TrimPrefix(query, "?"), encodeQuery)
	if query == u.query {
		return u
	}
	u.query = query
	return u
}

func (u URI) WithFragment(fragment string) URI {
	fragment = escape(strings.TrimPrefix(fragment, "#"), encodeFragment)
	if fragment == u.fragment {
		return u
	}
	u.fragment = fragment
	return u
}

func (u *URI) normalizePort() {
	if u.hasPort && u.port == DefaultPort(u.scheme) {
		u.port, u.hasPort = 0, false
	}
}

// MustParse is like [Parse] but panics on error.
// It is meant for constant URIs in tests and package initialization.
func MustParse(rawURL string) URI {
	u, err := Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}

// Parse parses rawURL into a URI.
//
// Scheme, host and port are validated. Path, query, fragment and user
// information are percent-encoded where needed instead of being rejected,
// so parsing the string form of a parsed URI yields the same URI.
func Parse(rawURL string) (URI, error) {
	u, err := parse(rawURL)
	if err != nil {
		return URI{}, errors.Wrapf(fault.ErrInvalidArgument, "unable to parse URI %q: %s", rawURL, err)
	}
	return u, nil
}

func parse(rawURL string) (URI, error) {
	if containsCTL(rawURL) {
		return URI{}, errors.New("URI should not contain CTL bytes")
	}

	var u URI

	scheme, rest, err := cutScheme(rawURL)
	if err != nil {
		return URI{}, errors.Wrap(err, "getting scheme")
	}
	// Scheme is recommended to be lowercase.
	u.scheme = strings.ToLower(scheme)

	if strings.HasPrefix(rest, "//") {
		authorityRaw := rest[2:]
		rest = ""
		if i := strings.IndexAny(authorityRaw, "/?#"); i >= 0 {
			authorityRaw, rest = authorityRaw[:i], authorityRaw[i:]
		}

		if err := u.parseAuthority(authorityRaw); err != nil {
			return URI{}, errors.Wrap(err, "parsing authority")
		}
	}

	path, query, frag := splitPathQueryFrag(rest)

	u.path = escape(path, encodePath)
	if len(query) > 0 {
		// Strip '?' from query.
		u.query = escape(query[1:], encodeQuery)
	}
	if len(frag) > 0 {
		// Strip '#' from fragment.
		u.fragment = escape(frag[1:], encodeFragment)
	}

	return u, nil
}

// cutScheme cuts scheme from rawURL. If scheme is not valid, it returns an error.
// A colon appearing after the first '/', '?' or '#' doesn't delimit a scheme.
func cutScheme(rawURL string) (scheme, rest string, err error) {
	idx := strings.IndexByte(rawURL, ':')
	if idx < 0 || strings.ContainsAny(rawURL[:idx], "/?#") {
		// If seperator is not found, scheme doesn't exist.
		return "", rawURL, nil
	}

	scheme, rest = rawURL[:idx], rawURL[idx+1:]
	if err := assertValidScheme(scheme); err != nil {
		return "", "", err
	}

	return scheme, rest, nil
}

func (u *URI) parseAuthority(raw string) error {
	u.hasAuthority = true

	var userInfo, host string
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		userInfo, host = raw[:i], raw[i+1:]
	} else {
		host = raw
	}

	if userInfo != "" {
		u.userInfo = escape(userInfo, encodeUserInfo)
		if !isValidUserInfo(u.userInfo) {
			return errors.New("user information is not valid")
		}
	}

	host, portPart, err := getHostPort(host)
	if err != nil {
		return errors.Wrap(err, "parsing host")
	}

	port, hasPort, err := parsePort(portPart)
	if err != nil {
		return errors.Wrap(err, "parsing port")
	}

	u.host = strings.ToLower(host)
	u.port, u.hasPort = port, hasPort
	u.normalizePort()

	return nil
}

func getHostPort(raw string) (host string, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		// This is IP Literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP Literal")
		}

		host = raw[:idx+1]
		portPart = raw[idx+1:]
	} else {
		// ipv4 or reg-name.
		host = raw
		if idx := strings.LastIndex(raw, ":"); idx >= 0 {
			host = raw[:idx]
			portPart = raw[idx:]
		}
	}

	if err := assertValidHost(host); err != nil {
		return "", "", errors.Wrap(err, "host is not valid")
	}

	return host, portPart, nil
}

// parsePort accepts an empty port (":") as "no port".
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
func parsePort(s string) (port uint16, hasPort bool, err error) {
	if s == "" {
		return 0, false, nil
	}

	if s[0] != ':' {
		return 0, false, errors.New("colon delimiter not found on port")
	}

	s = s[1:]
	if s == "" {
		return 0, false, nil
	}

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse uint")
	}

	return uint16(n), true, nil
}

func splitPathQueryFrag(raw string) (path, query, frag string) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		frag = raw[idx:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx:]
		raw = raw[:idx]
	}

	path = raw
	return
}
