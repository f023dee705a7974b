package server

import (
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/http11"
)

// conn is the event loop's per-connection state. The loop owns the
// whole struct: handlers only ever append serialized responses to the
// outbound queue, the loop alone advances drain progress.
type conn struct {
	fd     int
	id     string // correlation id for logs
	remote string
	srv    *config.Server

	// req is the single in-flight request; zero or one partially parsed
	// request exists at any time.
	req *http11.Request

	// out is the outbound byte queue; sent marks how much of it has
	// already been written to the socket.
	out  *bytebufferpool.ByteBuffer
	sent int

	// closing is set once a response is queued: the wire protocol is
	// one request per connection, so the fd closes when out drains.
	closing bool

	lastActive time.Time
}

// pending returns the number of queued bytes not yet written.
func (c *conn) pending() int {
	return len(c.out.B) - c.sent
}

// advance records a successful write of n bytes and reports whether the
// queue is fully drained.
func (c *conn) advance(n int) bool {
	c.sent += n
	if c.sent < len(c.out.B) {
		return false
	}
	c.out.Reset()
	c.sent = 0
	return true
}
