// Package http11 implements the HTTP/1.1 wire layer of the server: an
// incremental request parser driven by opaque byte chunks, the request and
// response message models, the status phrase table and the MIME table.
package http11

// Protocol constants
var (
	http11Bytes = []byte("HTTP/1.1")
	http10Bytes = []byte("HTTP/1.0")
	crlfBytes   = []byte("\r\n")
	colonSpace  = []byte(": ")
)

const http11Proto = "HTTP/1.1"

// ServerName is the value of the mandatory Server response header.
const ServerName = "webserv"

// Parser limits
const (
	// MaxHeaderBytes is the maximum cumulative size of the request line
	// plus all header lines, including the terminating blank line.
	// Exceeding it before headers complete is a 431.
	// RFC 7230 recommends at least 8000 octets.
	MaxHeaderBytes = 8192
)

// Lower-cased header names as stored by the parser.
// Header storage is normalized to lower case; lookup is case-insensitive.
const (
	HeaderContentLength    = "content-length"
	HeaderContentType      = "content-type"
	HeaderTransferEncoding = "transfer-encoding"
	HeaderContentEncoding  = "content-encoding"
	HeaderAcceptEncoding   = "accept-encoding"
	HeaderHost             = "host"
	HeaderLocation         = "location"
	HeaderAllow            = "allow"
	HeaderServer           = "server"
	HeaderDate             = "date"
)

// Common Content-Type values
const (
	ContentTypeHTML        = "text/html"
	ContentTypePlain       = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeForm        = "application/x-www-form-urlencoded"
	ContentTypeMultipart   = "multipart/form-data"
)
