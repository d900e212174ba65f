package rule

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// IsValidToken reports whether s can be used as a field name.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2.6
func IsValidToken(s string) bool {
	return httpguts.ValidHeaderFieldName(s)
}

// IsValidFieldValue reports whether s only consists of SP, HTAB,
// visible US-ASCII and obs-text octets.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2
func IsValidFieldValue(s string) bool {
	return httpguts.ValidHeaderFieldValue(s)
}

// TrimOWS removes leading and trailing SP and HTAB.
func TrimOWS(s string) string {
	return strings.Trim(s, string(OWS))
}

// CamelToSnake converts every upper-case letter followed by a lower-case
// letter into an underscore and the lower-cased pair: "verifyPeer" becomes
// "verify_peer". Already snake-cased keys are returned as is.
func CamelToSnake(s string) string {
	b := new(strings.Builder)
	b.Grow(len(s) + 4)

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if 'A' <= c && c <= 'Z' && idx+1 < len(s) && 'a' <= s[idx+1] && s[idx+1] <= 'z' {
			b.WriteByte('_')
			b.WriteByte(c + ('a' - 'A'))
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}
