package http11

import (
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
)

// headerPair keeps response headers in insertion order so serialization
// is deterministic.
type headerPair struct {
	name  string
	value string
}

// Response is built by a handler and serialized once; the bytes are
// queued on the connection and the Response is discarded.
type Response struct {
	StatusCode int
	Body       []byte

	headers  []headerPair
	headOnly bool
}

// NewResponse returns a response with the mandatory Server header and an
// empty body.
func NewResponse(status int) *Response {
	r := &Response{StatusCode: status}
	r.SetHeader("Server", ServerName)
	return r
}

// SetHeader sets a header, replacing an existing one of the same name
// (ASCII case-insensitive) while keeping its position.
func (r *Response) SetHeader(name, value string) {
	for i := range r.headers {
		if equalFold([]byte(r.headers[i].name), name) {
			r.headers[i].value = value
			return
		}
	}
	r.headers = append(r.headers, headerPair{name: name, value: value})
}

// HeaderValue returns the current value of a header, or "".
func (r *Response) HeaderValue(name string) string {
	for i := range r.headers {
		if equalFold([]byte(r.headers[i].name), name) {
			return r.headers[i].value
		}
	}
	return ""
}

// SetBody installs the body and sets Content-Type and Content-Length to
// the exact byte count.
func (r *Response) SetBody(body []byte, contentType string) {
	r.Body = body
	r.SetHeader("Content-Type", contentType)
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
}

// DropBody suppresses the body on the wire while preserving the declared
// Content-Length, as a HEAD response requires.
func (r *Response) DropBody() {
	r.headOnly = true
}

// WriteTo serializes the response into buf:
// status line, headers in order, blank line, body verbatim.
// A Date header is stamped if the handler did not set one.
func (r *Response) WriteTo(buf *bytebufferpool.ByteBuffer) {
	if r.HeaderValue(HeaderDate) == "" {
		r.SetHeader("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	}

	buf.B = append(buf.B, http11Bytes...)
	buf.B = append(buf.B, ' ')
	buf.B = strconv.AppendInt(buf.B, int64(r.StatusCode), 10)
	buf.B = append(buf.B, ' ')
	buf.B = append(buf.B, StatusText(r.StatusCode)...)
	buf.B = append(buf.B, crlfBytes...)

	for _, h := range r.headers {
		buf.B = append(buf.B, h.name...)
		buf.B = append(buf.B, colonSpace...)
		buf.B = append(buf.B, h.value...)
		buf.B = append(buf.B, crlfBytes...)
	}
	buf.B = append(buf.B, crlfBytes...)

	if !r.headOnly {
		buf.B = append(buf.B, r.Body...)
	}
}

// Bytes serializes the response into a fresh slice. Tests use it; the
// event loop serializes straight into the connection's outbound queue
// with WriteTo.
func (r *Response) Bytes() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	r.WriteTo(buf)
	out := make([]byte, len(buf.B))
	copy(out, buf.B)
	return out
}
