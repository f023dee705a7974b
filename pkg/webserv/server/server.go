// Package server runs the single-threaded event loop: listening
// sockets, readiness multiplexing over raw descriptors, per-connection
// buffering, idle timeouts and graceful shutdown. One poll(2) call per
// iteration gates every socket read and write.
package server

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/handler"
	"github.com/yourusername/webserv/pkg/webserv/http11"
	"github.com/yourusername/webserv/pkg/webserv/router"
)

const (
	// pollTimeoutMs is the readiness horizon of one loop iteration.
	pollTimeoutMs = 1000

	// idleTimeout closes connections with no activity.
	idleTimeout = 60 * time.Second

	// readBufSize is the per-iteration read size; one read per
	// connection per iteration.
	readBufSize = 16 << 10
)

// Stats counts loop activity since startup.
type Stats struct {
	Accepted  uint64
	Responses uint64
	Timeouts  uint64
}

// Server owns the connection table and the loop. It is not safe for
// concurrent use; everything happens on the goroutine calling Run.
type Server struct {
	cfg *config.Config
	log *zap.Logger
	rt  *router.Router

	// listeners maps a listening descriptor to its server block;
	// listenFds keeps them in configuration order for the poll set.
	listeners map[int]*config.Server
	listenFds []int

	conns map[int]*conn
	stats Stats

	stop atomic.Bool
}

// New builds a server over a validated configuration.
func New(cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		log:       log,
		rt:        router.New(log),
		listeners: make(map[int]*config.Server),
		conns:     make(map[int]*conn),
	}
}

// Stop asks the loop to exit at its next iteration boundary.
func (s *Server) Stop() {
	s.stop.Store(true)
}

// Stats returns a copy of the loop counters.
func (s *Server) Stats() Stats {
	return s.stats
}

// Run binds every configured endpoint, then drives the loop until a
// shutdown is requested. All sockets are closed on return.
func (s *Server) Run() error {
	for _, srv := range s.cfg.Servers {
		fd, err := openListener(srv.Host, srv.Port)
		if err != nil {
			s.closeAll()
			return err
		}
		s.listeners[fd] = srv
		s.listenFds = append(s.listenFds, fd)
		s.log.Info("listening",
			zap.String("addr", srv.Addr()),
			zap.String("server_name", srv.Name))
	}
	defer s.closeAll()

	for !s.stop.Load() && !shutdownRequested.Load() {
		s.iterate()
	}
	s.log.Info("shutting down",
		zap.Int("open_connections", len(s.conns)))
	return nil
}

// iterate performs one loop turn: build the interest set, poll once,
// sweep idle connections, then service each ready descriptor in array
// order with at most one read and one write per connection.
func (s *Server) iterate() {
	fds := s.pollSet()

	n, err := unix.Poll(fds, pollTimeoutMs)
	if err != nil {
		// A signal interrupting the poll is the normal shutdown path.
		if err != unix.EINTR {
			s.log.Warn("poll failed", zap.Error(err))
		}
		return
	}

	s.sweepIdle(time.Now())
	if n == 0 {
		return
	}

	for i := range fds {
		fd := int(fds[i].Fd)
		revents := fds[i].Revents
		if revents == 0 {
			continue
		}

		if srv, ok := s.listeners[fd]; ok {
			if revents&unix.POLLIN != 0 {
				s.accept(fd, srv)
			}
			continue
		}

		c, ok := s.conns[fd]
		if !ok {
			continue // closed by the idle sweep this iteration
		}
		if revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			s.closeConn(c, "hangup")
			continue
		}
		if revents&unix.POLLIN != 0 {
			if !s.readConn(c) {
				continue
			}
		}
		if revents&unix.POLLOUT != 0 && c.pending() > 0 {
			s.writeConn(c)
		}
	}
}

// pollSet computes the interest set: listeners want readable; every
// connection wants readable, plus writable while its queue is
// non-empty.
func (s *Server) pollSet() []unix.PollFd {
	fds := make([]unix.PollFd, 0, len(s.listenFds)+len(s.conns))
	for _, fd := range s.listenFds {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	for fd, c := range s.conns {
		ev := int16(unix.POLLIN)
		if c.pending() > 0 {
			ev |= unix.POLLOUT
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: ev})
	}
	return fds
}

// sweepIdle closes connections whose last activity is older than the
// idle timeout, discarding any pending request or queued response.
func (s *Server) sweepIdle(now time.Time) {
	for _, c := range s.conns {
		if now.Sub(c.lastActive) > idleTimeout {
			s.stats.Timeouts++
			s.closeConn(c, "idle timeout")
		}
	}
}

// accept takes one connection off a ready listener. Accept failures are
// logged and the iteration continues; they are not retried in a loop.
func (s *Server) accept(lfd int, srv *config.Server) {
	nfd, sa, err := unix.Accept(lfd)
	if err != nil {
		s.log.Warn("accept failed",
			zap.String("addr", srv.Addr()), zap.Error(err))
		return
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		s.log.Warn("accept: O_NONBLOCK failed", zap.Error(err))
		unix.Close(nfd)
		return
	}

	c := &conn{
		fd:         nfd,
		id:         uuid.NewString(),
		remote:     sockaddrString(sa),
		srv:        srv,
		req:        http11.NewRequest(srv.MaxBodySize),
		out:        bytebufferpool.Get(),
		lastActive: time.Now(),
	}
	s.conns[nfd] = c
	s.stats.Accepted++
	s.log.Debug("accepted",
		zap.String("conn", c.id), zap.String("remote", c.remote))
}

// readConn performs the iteration's single read for a connection and
// feeds the parser. Returns false when the connection was closed.
func (s *Server) readConn(c *conn) bool {
	var buf [readBufSize]byte
	n, err := unix.Read(c.fd, buf[:])
	if err != nil || n <= 0 {
		// Zero is the peer's close; the error value itself is not
		// inspected further.
		s.closeConn(c, "read end")
		return false
	}
	c.lastActive = time.Now()

	if c.closing {
		// A response is already queued; one request per connection, so
		// anything further from the peer is drained and dropped.
		return true
	}

	switch c.req.Feed(buf[:n]) {
	case http11.StateComplete:
		s.respond(c)
	case http11.StateError:
		s.respondError(c)
	}
	return true
}

// writeConn performs the iteration's single write: the entire pending
// prefix in one call. Zero or error closes the connection.
func (s *Server) writeConn(c *conn) {
	n, err := unix.Write(c.fd, c.out.B[c.sent:])
	if err != nil || n <= 0 {
		s.closeConn(c, "write end")
		return
	}
	c.lastActive = time.Now()
	if c.advance(n) && c.closing {
		s.closeConn(c, "response sent")
	}
}

// respond routes the completed request, queues the serialized response
// and resets the request slot. The connection closes once the queue
// drains: the wire protocol is one request per connection.
func (s *Server) respond(c *conn) {
	start := time.Now()
	resp := s.rt.Route(c.req, c.srv)
	before := len(c.out.B)
	resp.WriteTo(c.out)

	s.stats.Responses++
	s.log.Info("request",
		zap.String("conn", c.id),
		zap.String("remote", c.remote),
		zap.String("method", c.req.Method.String()),
		zap.String("path", c.req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(c.out.B)-before),
		zap.Duration("duration", time.Since(start)))

	c.req.Reset()
	c.closing = true
}

// respondError queues the single canned response for a parse error and
// flags the connection to close.
func (s *Server) respondError(c *conn) {
	resp := handler.ErrorResponse(c.req.ErrCode, c.srv)
	resp.WriteTo(c.out)

	s.stats.Responses++
	s.log.Info("request rejected",
		zap.String("conn", c.id),
		zap.String("remote", c.remote),
		zap.Int("status", c.req.ErrCode))

	c.req.Reset()
	c.closing = true
}

// closeConn releases a connection's descriptor and state.
func (s *Server) closeConn(c *conn, why string) {
	unix.Close(c.fd)
	delete(s.conns, c.fd)
	bytebufferpool.Put(c.out)
	c.out = nil
	s.log.Debug("closed",
		zap.String("conn", c.id), zap.String("why", why))
}

// closeAll tears down every socket the loop owns.
func (s *Server) closeAll() {
	for _, c := range s.conns {
		unix.Close(c.fd)
		bytebufferpool.Put(c.out)
	}
	s.conns = make(map[int]*conn)
	for _, fd := range s.listenFds {
		unix.Close(fd)
	}
	s.listenFds = nil
	s.listeners = make(map[int]*config.Server)
}
