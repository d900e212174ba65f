package uri

import (
	"strings"

	"http-client/lib/fault"
)

// RefResolver resolves references against a fixed base URI.
type RefResolver struct {
	base URI
}

func NewRefResolver(baseURI URI) (*RefResolver, error) {
	if baseURI.IsRelativeRef() {
		return nil, fault.InvalidArgument("base URI %q cannot be relative ref", baseURI.String())
	}
	return &RefResolver{base: baseURI}, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (rr *RefResolver) Resolve(ref URI) (out URI) {
	out = ref

	defer func() { out.path = removeDotSegments(out.path) }()

	if out.scheme != "" {
		return out
	}
	out.scheme = rr.base.scheme

	if out.hasAuthority {
		out.normalizePort()
		return out
	}
	out.hasAuthority = rr.base.hasAuthority
	out.userInfo = rr.base.userInfo
	out.host = rr.base.host
	out.port, out.hasPort = rr.base.port, rr.base.hasPort

	if out.path != "" {
		if !strings.HasPrefix(out.path, "/") {
			out.path = mergePath(rr.base, out)
		}
		return out
	}
	out.path = rr.base.path

	if out.query != "" {
		return out
	}
	out.query = rr.base.query

	return out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref URI) string {
	if base.hasAuthority && base.path == "" {
		return "/" + ref.path
	}

	if idx := strings.LastIndexByte(base.path, '/'); idx >= 0 {
		return base.path[:idx+1] + ref.path
	}

	return ref.path
}
