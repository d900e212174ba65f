package stream

import (
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"http-client/application/http"
	"http-client/lib/fault"

	"github.com/pkg/errors"
)

const (
	boundaryLength   = 12
	boundaryAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// MultipartField is a single form field. Value is a scalar (string, []byte,
// bool or a number), a nested map[string]any or []any, or a [Stream].
type MultipartField struct {
	Name  string
	Value any
}

// Multipart is a multipart/form-data body built from a sequence of streams.
// It is readable only.
type Multipart struct {
	boundary string

	parts []Stream
	idx   int
}

var _ Stream = (*Multipart)(nil)

// NewMultipart builds a body from fields. Map keys are emitted in sorted
// order; use [NewMultipartFields] to control it.
func NewMultipart(fields map[string]any) (*Multipart, error) {
	return NewMultipartFields(sortedFields(fields)...)
}

// NewMultipartFields builds a body emitting fields in the given order.
// Nested maps and slices are flattened into "parent[child]" names.
func NewMultipartFields(fields ...MultipartField) (*Multipart, error) {
	flat, err := flatten(fields, "")
	if err != nil {
		return nil, err
	}

	m := &Multipart{}
	for _, field := range flat {
		if err := m.appendField(field); err != nil {
			return nil, errors.Wrapf(err, "field %q", field.Name)
		}
	}

	if len(flat) > 0 {
		m.parts = append(m.parts, NewText("--"+m.Boundary()+"--"))
	}

	return m, nil
}

// Boundary returns the delimiter token. It is generated once and stable after.
func (m *Multipart) Boundary() string {
	if m.boundary == "" {
		b := make([]byte, boundaryLength)
		for idx := range b {
			b[idx] = boundaryAlphabet[rand.IntN(len(boundaryAlphabet))]
		}
		m.boundary = string(b)
	}
	return m.boundary
}

func (m *Multipart) appendField(field MultipartField) error {
	meta := new(strings.Builder)
	meta.WriteString("--" + m.Boundary() + "\r\n")
	meta.WriteString(`Content-Disposition: form-data; name="` + field.Name + `"`)

	value, isStream := field.Value.(Stream)
	if isStream {
		if named, ok := value.(Named); ok {
			meta.WriteString(`; filename="` + named.ClientFilename() + `"`)
		}
	}
	meta.WriteString("\r\n")

	if carrier, ok := value.(PartHeaderCarrier); ok && isStream {
		meta.Write(http.SerializeFields(carrier.PartHeaders()))
	}
	meta.WriteString("\r\n")

	if !isStream {
		scalar, err := formatScalar(field.Value)
		if err != nil {
			return err
		}
		meta.WriteString(scalar)
	}

	m.parts = append(m.parts, NewText(meta.String()))
	if isStream {
		m.parts = append(m.parts, value)
	}
	m.parts = append(m.parts, NewText("\r\n"))

	return nil
}

func sortedFields(fields map[string]any) []MultipartField {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]MultipartField, 0, len(keys))
	for _, k := range keys {
		out = append(out, MultipartField{Name: k, Value: fields[k]})
	}
	return out
}

func flatten(fields []MultipartField, prefix string) ([]MultipartField, error) {
	out := make([]MultipartField, 0, len(fields))
	for _, field := range fields {
		if _, ok := field.Value.(*Multipart); ok {
			return nil, fault.Runtime("multipart stream is disabled in nested multipart data")
		}

		name := field.Name
		if prefix != "" {
			name = prefix + "[" + field.Name + "]"
		}

		var children []MultipartField
		switch v := field.Value.(type) {
		case map[string]any:
			children = sortedFields(v)
		case []any:
			children = make([]MultipartField, len(v))
			for idx, child := range v {
				children[idx] = MultipartField{Name: strconv.Itoa(idx), Value: child}
			}
		default:
			out = append(out, MultipartField{Name: name, Value: field.Value})
			continue
		}

		nested, err := flatten(children, name)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}

	return out, nil
}

func formatScalar(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", fault.InvalidArgument("unsupported multipart value of type %T", v)
}

func (m *Multipart) Read(p []byte) (int, error) {
	if len(m.parts) == 0 {
		return 0, io.EOF
	}

	total := 0
	for total < len(p) {
		n, err := m.parts[m.idx].Read(p[total:])
		total += n
		if err != nil && !errors.Is(err, io.EOF) {
			return total, err
		}
		if total == len(p) {
			break
		}

		// The current part came up short.
		if !(errors.Is(err, io.EOF) || m.parts[m.idx].EOF()) {
			break
		}
		if m.idx == len(m.parts)-1 {
			break
		}
		m.idx++
	}

	if total == 0 && m.EOF() {
		return 0, io.EOF
	}
	return total, nil
}

func (m *Multipart) ReadN(n int) ([]byte, error) { return readN(m, n) }

func (m *Multipart) Contents() ([]byte, error) { return readAll(m) }

// EOF requires the cursor at the last part and that part at its end.
func (m *Multipart) EOF() bool {
	if len(m.parts) == 0 {
		return true
	}
	return m.idx == len(m.parts)-1 && m.parts[m.idx].EOF()
}

// Size is the sum of the sizes of every part.
func (m *Multipart) Size() (int64, bool) {
	var total int64
	for _, part := range m.parts {
		size, ok := part.Size()
		if !ok {
			return 0, false
		}
		total += size
	}
	return total, true
}

func (m *Multipart) Tell() (int64, error) {
	return 0, fault.Runtime("cannot get current position")
}

func (m *Multipart) Seek(int64, int) (int64, error) { return 0, errNotSeekable() }

// Rewind rewinds every part and moves the cursor back to the first one.
func (m *Multipart) Rewind() error {
	for _, part := range m.parts {
		if err := part.Rewind(); err != nil {
			return err
		}
	}
	m.idx = 0
	return nil
}

func (m *Multipart) Write([]byte) (int, error) { return 0, errNotWritable() }

// Close closes every part and returns the first failure.
func (m *Multipart) Close() error {
	var first error
	for _, part := range m.parts {
		if err := part.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Multipart) Detach() io.Closer {
	closers := make([]io.Closer, len(m.parts))
	for idx, part := range m.parts {
		closers[idx] = part.Detach()
	}
	return closerFunc(func() error {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Multipart) Readable() bool { return true }
func (m *Multipart) Writable() bool { return false }
func (m *Multipart) Seekable() bool { return false }
