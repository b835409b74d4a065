package rpc

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sys/unix"

	"github.com/zokrezyl/yetty/yerr"
)

// pollTimeoutMillis bounds how long one Poll call blocks, so the run
// loop periodically notices Stop() without needing a self-pipe.
const pollTimeoutMillis = 250

// RequestHandler answers a Request, returning the value to encode as
// the response's result.
type RequestHandler func(params map[string]any) (any, error)

// NotificationHandler processes a fire-and-forget Notification. Any
// error is logged, never sent back (there's no one to send it to).
type NotificationHandler func(params map[string]any)

type handlerKey struct {
	channel Channel
	method  string
}

// Server is a cooperative, single-goroutine msgpack-rpc endpoint bound
// to a Unix domain socket. One Run call drives accept and all client
// I/O through a single golang.org/x/sys/unix.Poll loop: a handler runs
// to completion before the next message (from any connection) is
// processed, so handlers never need to synchronize against each other.
type Server struct {
	socketPath string
	listenFD   int

	mu       sync.Mutex
	requests map[handlerKey]RequestHandler
	notifies map[handlerKey]NotificationHandler

	conns  map[int]*conn
	stopCh chan struct{}
}

type conn struct {
	fd  int
	buf bytes.Buffer
}

// NewServer binds a listening socket at path (removing any stale
// socket file first) with mode 0700.
func NewServer(path string) (*Server, error) {
	_ = os.Remove(path)

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, yerr.Wrap(yerr.OsError, "rpc: create socket", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, yerr.Wrap(yerr.OsError, "rpc: bind socket", err)
	}
	if err := os.Chmod(path, 0700); err != nil {
		unix.Close(fd)
		return nil, yerr.Wrap(yerr.OsError, "rpc: chmod socket", err)
	}
	if err := unix.Listen(fd, 8); err != nil {
		unix.Close(fd)
		return nil, yerr.Wrap(yerr.OsError, "rpc: listen", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, yerr.Wrap(yerr.OsError, "rpc: set nonblocking", err)
	}

	s := &Server{
		socketPath: path,
		listenFD:   fd,
		requests:   make(map[handlerKey]RequestHandler),
		notifies:   make(map[handlerKey]NotificationHandler),
		conns:      make(map[int]*conn),
		stopCh:     make(chan struct{}),
	}
	slogger().Info("rpc: listening", "path", path)
	return s, nil
}

// SocketPath returns the path this server is bound to.
func (s *Server) SocketPath() string { return s.socketPath }

// RegisterRequest registers a handler for (channel, method) requests.
func (s *Server) RegisterRequest(channel Channel, method string, h RequestHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[handlerKey{channel, method}] = h
}

// RegisterNotification registers a handler for (channel, method) notifications.
func (s *Server) RegisterNotification(channel Channel, method string, h NotificationHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifies[handlerKey{channel, method}] = h
}

// Stop signals Run to return after its current poll iteration.
func (s *Server) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// Close releases the listening socket and unlinks the socket file.
func (s *Server) Close() error {
	for fd := range s.conns {
		unix.Close(fd)
	}
	s.conns = make(map[int]*conn)
	err := unix.Close(s.listenFD)
	_ = os.Remove(s.socketPath)
	if err != nil {
		return yerr.Wrap(yerr.OsError, "rpc: close listener", err)
	}
	return nil
}

// Run drives the accept/read/dispatch loop until Stop is called or an
// unrecoverable poll error occurs.
func (s *Server) Run() error {
	for {
		select {
		case <-s.stopCh:
			return nil
		default:
		}

		fds := s.buildPollFDs()
		n, err := unix.Poll(fds, pollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return yerr.Wrap(yerr.OsError, "rpc: poll", err)
		}
		if n == 0 {
			continue
		}

		for _, pfd := range fds {
			if pfd.Revents == 0 {
				continue
			}
			if int(pfd.Fd) == s.listenFD {
				s.acceptAll()
				continue
			}
			if pfd.Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
				s.closeConn(int(pfd.Fd))
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 {
				s.readConn(int(pfd.Fd))
			}
		}
	}
}

func (s *Server) buildPollFDs() []unix.PollFd {
	fds := make([]unix.PollFd, 0, len(s.conns)+1)
	fds = append(fds, unix.PollFd{Fd: int32(s.listenFD), Events: unix.POLLIN})
	for fd := range s.conns {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	return fds
}

func (s *Server) acceptAll() {
	for {
		fd, _, err := unix.Accept(s.listenFD)
		if err != nil {
			if err != unix.EAGAIN {
				slogger().Warn("rpc: accept failed", "error", err)
			}
			return
		}
		_ = unix.SetNonblock(fd, true)
		s.conns[fd] = &conn{fd: fd}
		slogger().Debug("rpc: client connected", "fd", fd)
	}
}

func (s *Server) closeConn(fd int) {
	unix.Close(fd)
	delete(s.conns, fd)
	slogger().Debug("rpc: client disconnected", "fd", fd)
}

func (s *Server) readConn(fd int) {
	c, ok := s.conns[fd]
	if !ok {
		return
	}

	buf := make([]byte, 65536)
	for {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			c.buf.Write(buf[:n])
		}
		if err != nil {
			if err == unix.EAGAIN {
				break
			}
			s.closeConn(fd)
			return
		}
		if n == 0 {
			s.closeConn(fd)
			return
		}
		if n < len(buf) {
			break
		}
	}

	s.drainFrames(c)
}

// drainFrames decodes as many complete msgpack frames as are currently
// buffered, dispatching each, and leaves any trailing partial frame in
// c.buf for the next read.
func (s *Server) drainFrames(c *conn) {
	for {
		data := c.buf.Bytes()
		if len(data) == 0 {
			return
		}
		r := bytes.NewReader(data)
		dec := msgpack.NewDecoder(r)
		var raw []msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return // incomplete frame; wait for more bytes
		}
		consumed := len(data) - r.Len()
		frame := append([]byte(nil), data[:consumed]...)
		c.buf.Next(consumed)

		req, _, note, err := DecodeFrame(frame)
		if err != nil {
			slogger().Warn("rpc: malformed frame", "error", err)
			continue
		}
		switch {
		case req != nil:
			s.dispatchRequest(c, req)
		case note != nil:
			s.dispatchNotification(note)
		}
	}
}

func (s *Server) dispatchRequest(c *conn, req *Request) {
	s.mu.Lock()
	h, ok := s.requests[handlerKey{req.Channel, req.Method}]
	s.mu.Unlock()

	if !ok {
		s.reply(c, req.MsgID, fmt.Sprintf("unknown method: %s", req.Method), nil)
		return
	}

	result, err := h(req.Params)
	if err != nil {
		s.reply(c, req.MsgID, err.Error(), nil)
		return
	}
	s.reply(c, req.MsgID, "", result)
}

func (s *Server) dispatchNotification(note *Notification) {
	s.mu.Lock()
	h, ok := s.notifies[handlerKey{note.Channel, note.Method}]
	s.mu.Unlock()

	if !ok {
		slogger().Warn("rpc: no handler", "channel", note.Channel, "method", note.Method)
		return
	}
	h(note.Params)
}

func (s *Server) reply(c *conn, msgID uint32, errMsg string, result any) {
	data, err := EncodeResponse(msgID, errMsg, result)
	if err != nil {
		slogger().Error("rpc: encode response failed", "error", err)
		return
	}
	s.writeAll(c.fd, data)
}

func (s *Server) writeAll(fd int, data []byte) {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if err != nil {
			if err == unix.EAGAIN {
				// The client isn't draining its receive buffer fast
				// enough; block this single dispatch iteration on
				// POLLOUT rather than spinning, since Run is
				// cooperative and a busy retry here would peg the
				// goroutine every other connection shares.
				pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
				if _, perr := unix.Poll(pfd, pollTimeoutMillis); perr != nil && perr != unix.EINTR {
					slogger().Warn("rpc: poll for write failed", "fd", fd, "error", perr)
					return
				}
				continue
			}
			slogger().Warn("rpc: write failed", "fd", fd, "error", err)
			return
		}
		data = data[n:]
	}
}
