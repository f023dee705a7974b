package http11

import "github.com/intuitivelabs/bytescase"

// Header stores request header fields keyed by lower-cased name.
// A duplicated field keeps the last value seen, matching the parser's
// "last value wins" rule.
type Header map[string]string

// lowerString lower-cases an ASCII header name without touching
// non-letter bytes. Header names are ASCII per RFC 7230.
func lowerString(b []byte) string {
	buf := make([]byte, len(b))
	for i := 0; i < len(b); i++ {
		buf[i] = bytescase.ByteToLower(b[i])
	}
	return string(buf)
}

// Set stores a field under its lower-cased name, replacing any prior value.
func (h Header) Set(name, value string) {
	h[lowerString([]byte(name))] = value
}

// Get returns the value stored for a name, case-insensitively.
// Returns "" when the field is absent.
func (h Header) Get(name string) string {
	return h[lowerString([]byte(name))]
}

// Has reports whether a field is present, case-insensitively.
func (h Header) Has(name string) bool {
	_, ok := h[lowerString([]byte(name))]
	return ok
}
