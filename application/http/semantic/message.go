package semantic

import (
	"http-client/application/http"
	"http-client/application/http/stream"
	"http-client/lib/fault"
)

// DefaultProtocolVersion is used when a message doesn't set one.
const DefaultProtocolVersion = "1.1"

// Message holds what requests and responses share: protocol version, headers and body.
// It is embedded by [Request] and [Response], whose mutators return modified copies.
type Message struct {
	protocol string
	headers  Headers
	body     stream.Stream
}

func newMessage(protocol string, headers Headers, body stream.Stream) Message {
	if protocol == "" {
		protocol = DefaultProtocolVersion
	}
	return Message{protocol: protocol, headers: headers, body: body}
}

// ProtocolVersion returns the version without the "HTTP/" prefix, such as "1.1".
func (m Message) ProtocolVersion() string {
	if m.protocol == "" {
		return DefaultProtocolVersion
	}
	return m.protocol
}

func (m Message) Headers() Headers { return m.headers }

func (m Message) Header(name string) []string { return m.headers.Values(name) }

func (m Message) HeaderLine(name string) string { return m.headers.Line(name) }

func (m Message) HasHeader(name string) bool { return m.headers.Has(name) }

// Body never returns nil. A message without body reads as an empty text stream.
func (m Message) Body() stream.Stream {
	if m.body == nil {
		return stream.NewText("")
	}
	return m.body
}

// Each helper below reports whether anything changed,
// so callers can hand back the same value.

func (m Message) withProtocolVersion(version string) (Message, bool, error) {
	if version == "" {
		version = DefaultProtocolVersion
	}
	if _, err := http.ParseProtocol(version); err != nil {
		return Message{}, false, fault.InvalidArgument("protocol version %q: %s", version, err)
	}
	if m.ProtocolVersion() == version {
		return m, false, nil
	}
	m.protocol = version
	return m, true, nil
}

func (m Message) withHeaders(h Headers, err error) (Message, bool, error) {
	if err != nil {
		return Message{}, false, err
	}
	if h.Equal(m.headers) {
		return m, false, nil
	}
	m.headers = h
	return m, true, nil
}

func (m Message) withBody(body stream.Stream) (Message, bool) {
	if m.body == body {
		return m, false
	}
	m.body = body
	return m, true
}
