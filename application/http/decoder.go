package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"http-client/application/util/rule"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxFieldLineLength sets the limit of field line length on headers.
	MaxFieldLineLength uint

	// MaxStatusLineLength sets the limit of status line length.
	MaxStatusLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:         false,
	MaxFieldLineLength:  0,
	MaxStatusLineLength: 0,
}

type MessageDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

var (
	errLineTooLong       = errors.New("line length exceeeds limit")
	ErrMissingCRBeforeLF = errors.New("missing CR before LF")
)

// readLine returns the next line without its terminator.
// The last line of the input may come without one, as a head read up to
// end-of-data is trimmed of its trailing CRLF.
func (md *MessageDecoder) readLine(limit uint) ([]byte, error) {
	b, err := md.br.ReadBytes(rule.LF)
	if err != nil {
		if !errors.Is(err, io.EOF) || len(b) == 0 {
			return nil, err
		}
		// Unterminated last line.
		return bytes.TrimSuffix(b, []byte{rule.CR}), nil
	}

	if limit > 0 && uint(len(b)) > limit {
		return nil, errLineTooLong
	}

	b = b[:len(b)-1] // Remove LF.

	if !md.opts.AllowSoleLF {
		if len(b) == 0 || b[len(b)-1] != rule.CR {
			return nil, ErrMissingCRBeforeLF
		}
		b = b[:len(b)-1] // Remove CR.
	} else {
		b = bytes.TrimSuffix(b, []byte{rule.CR})
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
	b = bytes.ReplaceAll(b, []byte{rule.CR}, []byte{rule.SP})

	return b, nil
}

var (
	ErrFieldLineTooLong   = errors.New("field line length exceeds limit")
	ErrMalformedFieldLine = errors.New("field line is malformed")
)

func (md *MessageDecoder) decodeHeaders() ([]Field, error) {
	headers := make([]Field, 0)
	for {
		fieldLine, err := md.readLine(md.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The head ended without a blank line.
				break
			}
			if errors.Is(err, errLineTooLong) {
				return nil, ErrFieldLineTooLong
			}
			return nil, errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more headers.
			break
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedFieldLine, err.Error())
		}

		headers = append(headers, field)
	}

	return headers, nil
}

var (
	ErrStatusLineTooLong   = errors.New("status line length exceeds limit")
	ErrMalformedStatusLine = errors.New("status line is malformed")
)

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// DecodeHead decodes a status line followed by field lines.
// The body is left unread.
func (rd *ResponseDecoder) DecodeHead() (StatusLine, []Field, error) {
	statLine, err := rd.decodeStatusLine()
	if err != nil {
		return StatusLine{}, nil, errors.Wrap(err, "parsing status line")
	}

	fields, err := rd.decodeHeaders()
	if err != nil {
		return StatusLine{}, nil, errors.Wrap(err, "parsing headers")
	}

	return statLine, fields, nil
}

// ParseHead parses a complete response head.
func ParseHead(head []byte, opts DecodeOptions) (StatusLine, []Field, error) {
	return NewResponseDecoder(bytes.NewReader(head), opts).DecodeHead()
}

func (rd *ResponseDecoder) decodeStatusLine() (StatusLine, error) {
	var line []byte
	for {
		b, err := rd.readLine(rd.opts.MaxStatusLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return StatusLine{}, ErrStatusLineTooLong
			}
			return StatusLine{}, errors.Wrap(err, "reading line")
		}

		// An empty line can be received before message.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(b) > 0 {
			line = b
			break
		}
	}

	parsed, err := ParseStatusLine(line)
	if err != nil {
		return StatusLine{}, errors.Wrap(ErrMalformedStatusLine, err.Error())
	}

	return parsed, nil
}

// ParseStatusLine parses "HTTP/<version> <3-digit code> <reason>",
// split on the first two spaces. The reason phrase may be empty.
func ParseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return StatusLine{}, errors.New("status line is malformed")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCodeStr := string(parts[1])
	statusCode, err := strconv.ParseUint(statusCodeStr, 10, 64)
	if err != nil || len(statusCodeStr) != 3 {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	reasonPhrase := ""
	if len(parts) == 3 {
		reasonPhrase = string(parts[2])
	}

	return StatusLine{
		Protocol:     ver.Protocol(),
		StatusCode:   uint(statusCode),
		ReasonPhrase: reasonPhrase,
	}, nil
}
