package http

import (
	"bytes"
	"strconv"
	"strings"

	"http-client/application/util/rule"

	"github.com/pkg/errors"
)

// [Major, Minor]
type Version [2]uint

var Version11 = Version{1, 1}

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	return ParseProtocol(string(b[len(prefix):]))
}

// ParseProtocol parses the protocol version number without the "HTTP/"
// prefix (e.g. "1.1"), as it is stored on a message.
func ParseProtocol(s string) (Version, error) {
	// Get major and minor version.
	first, second, found := strings.Cut(s, ".")
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %s", s)
	}

	major, err1 := strconv.ParseUint(first, 10, 64)
	minor, err2 := strconv.ParseUint(second, 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", s)
	}

	return Version{uint(major), uint(minor)}, nil
}

// Protocol returns the version number without the "HTTP/" prefix.
func (ver Version) Protocol() string {
	return strconv.FormatUint(uint64(ver[0]), 10) + "." + strconv.FormatUint(uint64(ver[1]), 10)
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(ver.Protocol()))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

type RequestLine struct {
	Method string
	Target string
	// Protocol is the version number, e.g. "1.1".
	// It is written as is, so "HTTP/" must not be included.
	Protocol string
}

func (rl RequestLine) Text() []byte {
	buf := bytes.NewBuffer(nil)

	buf.Write([]byte(rl.Method))
	buf.WriteByte(rule.SP)
	buf.Write([]byte(rl.Target))
	buf.WriteByte(rule.SP)
	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(rl.Protocol))

	return buf.Bytes()
}

type StatusLine struct {
	// Protocol is the version number without "HTTP/" prefix, e.g. "1.1".
	Protocol     string
	StatusCode   uint
	ReasonPhrase string
}

func (sl StatusLine) Text() []byte {
	buf := bytes.NewBuffer(nil)

	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(sl.Protocol))
	buf.WriteByte(rule.SP)
	buf.Write([]byte(strconv.FormatUint(uint64(sl.StatusCode), 10)))
	buf.WriteByte(rule.SP)
	buf.Write([]byte(sl.ReasonPhrase))

	return buf.Bytes()
}

type Field struct{ Name, Value []byte }

func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon seperator not found on header: %q", string(fieldLine))
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	for _, c := range rule.OWS {
		if bytes.HasSuffix(name, []byte{c}) {
			return Field{}, errors.New("field name has trailing whitespace")
		}
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-3
	value = bytes.Trim(value, string(rule.OWS))
	if value == nil {
		// An empty field value is present, not missing.
		value = []byte{}
	}

	return Field{Name: name, Value: value}, nil
}

func (f *Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(f.Name)
	buf.Write([]byte(": "))
	buf.Write(f.Value)
	return buf.Bytes()
}

// SerializeFields writes each field as a "Name: value" line terminated by CRLF.
func SerializeFields(fields []Field) []byte {
	buf := bytes.NewBuffer(nil)
	for _, field := range fields {
		buf.Write(field.Text())
		buf.Write(rule.CRLF)
	}
	return buf.Bytes()
}
