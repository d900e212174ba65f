package semantic

import (
	"slices"
	"strings"

	"http-client/application/http"
	"http-client/application/util/rule"
	"http-client/lib/fault"
)

// Headers is an ordered, case-insensitive collection of header fields.
//
// Every name keeps the casing it was first registered with (With replaces
// it). A name maps to an ordered list of values, and duplicates are kept.
// Headers is immutable: every mutator returns a modified copy.
type Headers struct {
	names  []string            // Original casing, in insertion order.
	index  map[string]string   // Lowercase name -> original casing.
	values map[string][]string // Original casing -> values.
}

// NewHeaders creates headers from initial. Names are registered in sorted
// order, since maps have none.
func NewHeaders(initial map[string][]string) (Headers, error) {
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		h   Headers
		err error
	)
	for _, name := range names {
		if h, err = h.WithAdded(name, initial[name]...); err != nil {
			return Headers{}, err
		}
	}

	return h, nil
}

// HeadersFrom creates headers from raw fields, keeping their order.
// Repeated field lines are merged into one name.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3-1
func HeadersFrom(fields []http.Field) (Headers, error) {
	var (
		h   Headers
		err error
	)
	for _, field := range fields {
		if h, err = h.WithAdded(string(field.Name), string(field.Value)); err != nil {
			return Headers{}, err
		}
	}

	return h, nil
}

func validateAndTrim(name string, values []string) ([]string, error) {
	if !rule.IsValidToken(name) {
		return nil, fault.InvalidArgument("header name must be an RFC 7230 compatible string: %q", name)
	}
	if len(values) == 0 {
		return nil, fault.InvalidArgument("header %q needs at least one value", name)
	}

	trimmed := make([]string, len(values))
	for idx, v := range values {
		if !rule.IsValidFieldValue(v) {
			return nil, fault.InvalidArgument("header values must be RFC 7230 compatible strings: %q", v)
		}
		trimmed[idx] = rule.TrimOWS(v)
	}

	return trimmed, nil
}

func (h Headers) clone() Headers {
	out := Headers{
		names:  slices.Clone(h.names),
		index:  make(map[string]string, len(h.index)+1),
		values: make(map[string][]string, len(h.values)+1),
	}
	for k, v := range h.index {
		out.index[k] = v
	}
	for k, v := range h.values {
		out.values[k] = v
	}
	return out
}

// With replaces every value of name. The new casing of name is kept and
// the field keeps its position.
func (h Headers) With(name string, values ...string) (Headers, error) {
	values, err := validateAndTrim(name, values)
	if err != nil {
		return Headers{}, err
	}

	lower := strings.ToLower(name)
	if original, ok := h.index[lower]; ok && original == name && slices.Equal(h.values[name], values) {
		return h, nil
	}

	out := h.clone()
	if original, ok := out.index[lower]; ok {
		out.names[slices.Index(out.names, original)] = name
		delete(out.values, original)
	} else {
		out.names = append(out.names, name)
	}
	out.index[lower] = name
	out.values[name] = values

	return out, nil
}

// WithFirst is like [Headers.With] but moves the field to the front.
func (h Headers) WithFirst(name string, values ...string) (Headers, error) {
	out, err := h.Without(name).With(name, values...)
	if err != nil {
		return Headers{}, err
	}

	if len(out.names) > 1 {
		last := out.names[len(out.names)-1]
		out.names = append([]string{last}, out.names[:len(out.names)-1]...)
	}

	return out, nil
}

// WithAdded appends values to name, keeping the casing registered first.
func (h Headers) WithAdded(name string, values ...string) (Headers, error) {
	values, err := validateAndTrim(name, values)
	if err != nil {
		return Headers{}, err
	}

	out := h.clone()
	lower := strings.ToLower(name)
	if original, ok := out.index[lower]; ok {
		merged := make([]string, 0, len(out.values[original])+len(values))
		merged = append(merged, out.values[original]...)
		out.values[original] = append(merged, values...)
		return out, nil
	}

	out.names = append(out.names, name)
	out.index[lower] = name
	out.values[name] = values

	return out, nil
}

// Without removes name. Headers not containing name are returned as is.
func (h Headers) Without(name string) Headers {
	lower := strings.ToLower(name)
	original, ok := h.index[lower]
	if !ok {
		return h
	}

	out := h.clone()
	out.names = slices.DeleteFunc(out.names, func(n string) bool { return n == original })
	delete(out.index, lower)
	delete(out.values, original)

	return out
}

func (h Headers) Has(name string) bool {
	_, ok := h.index[strings.ToLower(name)]
	return ok
}

// Get assumes the field is a singleton field.
// Even if name has multiple values, it will only return the first element of values.
// For list-based field, use [Headers.Values] or [Headers.Line].
func (h Headers) Get(name string) (value string, ok bool) {
	values := h.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Values returns a copy of the values of name, nil if absent.
func (h Headers) Values(name string) []string {
	original, ok := h.index[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return slices.Clone(h.values[original])
}

// Line returns the values of name joined by ", ".
func (h Headers) Line(name string) string {
	return strings.Join(h.Values(name), ", ")
}

// Names returns the names in their registered casing and order.
func (h Headers) Names() []string { return slices.Clone(h.names) }

func (h Headers) Len() int { return len(h.names) }

// Fields returns one raw field per name, in order, values joined by ", ".
func (h Headers) Fields() []http.Field {
	fields := make([]http.Field, 0, len(h.names))
	for _, name := range h.names {
		fields = append(fields, http.Field{
			Name:  []byte(name),
			Value: []byte(strings.Join(h.values[name], ", ")),
		})
	}
	return fields
}

// Equal reports whether both hold the same names, casing, order and values.
func (h Headers) Equal(other Headers) bool {
	if !slices.Equal(h.names, other.names) {
		return false
	}
	for _, name := range h.names {
		if !slices.Equal(h.values[name], other.values[name]) {
			return false
		}
	}
	return true
}
