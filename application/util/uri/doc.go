// Package uri parses, normalizes and resolves URIs.
//
// A URI is an immutable value: every With* method returns a copy, or the
// receiver itself when the value would not change. Components are kept
// percent-encoded, and a port equal to the scheme's default is never stored.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
package uri
