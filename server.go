package ymsg

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// PacketWriter sends packets back to the peer of a server connection.
type PacketWriter interface {
	// WritePacket encodes and writes p. Concurrent calls are serialized.
	WritePacket(p *Packet) error
	// RemoteAddr returns the peer address.
	RemoteAddr() net.Addr
}

// Handler handles packets received by a Server.
type Handler interface {
	// ServeYMSG is called for each decoded packet, in arrival order per connection.
	ServeYMSG(w PacketWriter, p *Packet)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(w PacketWriter, p *Packet)

// ServeYMSG calls f(w, p).
func (f HandlerFunc) ServeYMSG(w PacketWriter, p *Packet) {
	f(w, p)
}

// Server accepts YMSG connections and dispatches their packets to a Handler.
// It plays the pager side of the protocol and is mostly useful for tests and local
// tooling.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	codec           *Codec
	shutdownTimeout time.Duration

	mu          sync.Mutex
	shutdown    bool
	shutdownNow chan struct{} // signals immediate shutdown, bypassing timeout
	conns       sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerCodecOption sets the codec used for every accepted connection.
func ServerCodecOption(codec *Codec) ServerOption {
	return func(s *Server) {
		s.codec = codec
	}
}

// ServerShutdownTimeoutOption sets the graceful shutdown timeout.
// When the context is canceled, the server waits up to this duration before
// closing the listener and its connections. Default is 0 (immediate shutdown).
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// New creates a new server bound to the specified address.
// Returns an error if the address cannot be bound.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:    listener,
		logger:      defaultLogger(),
		shutdownNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		s.codec = NewCodec()
	}

	return s, nil
}

// Serve accepts connections and dispatches their packets to handler.
// It blocks until the context is canceled or an unrecoverable error occurs, and
// returns after every connection it accepted has been closed.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	// Connections outlive ctx until the shutdown timeout has elapsed.
	connCtx, closeConns := context.WithCancel(context.Background())
	defer func() {
		closeConns()
		s.conns.Wait()
	}()

	go func() {
		<-ctx.Done()

		// Wait for shutdown timeout if configured, but allow early exit via Close()
		if s.shutdownTimeout > 0 {
			s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
			select {
			case <-time.After(s.shutdownTimeout):
			case <-s.shutdownNow:
				s.logger.Debug("shutdown timeout bypassed via Close()")
			}
		}

		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		// Set a deadline to unblock Accept
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.serveConn(connCtx, conn, handler)
		}()
	}
}

// serveConn reads packets from one connection until it fails or ctx is canceled.
func (s *Server) serveConn(ctx context.Context, conn *net.TCPConn, handler Handler) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()
	defer conn.Close()

	w := &serverWriter{conn: conn, codec: s.codec}
	r := NewReassembler(s.codec.MaxPayload())
	buf := make([]byte, defaultReadBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			r.Append(buf[:n])
			blocks, derr := r.Drain()
			for _, block := range blocks {
				p, perr := s.codec.Decode(block)
				if perr != nil {
					derr = perr
					break
				}
				handler.ServeYMSG(w, p)
			}
			if derr != nil {
				s.logger.Warn("malformed stream", "remote_addr", conn.RemoteAddr(), "error", derr)
				return
			}
		}
		if err != nil {
			s.logger.Debug("connection closed", "remote_addr", conn.RemoteAddr(), "error", err)
			return
		}
	}
}

// Close stops the server by closing the underlying listener.
// If a shutdown timeout is configured, Close() bypasses the remaining timeout.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	select {
	case s.shutdownNow <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

type serverWriter struct {
	mu    sync.Mutex
	conn  net.Conn
	codec *Codec
}

func (w *serverWriter) WritePacket(p *Packet) error {
	data, err := w.codec.Encode(p)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.conn.Write(data); err != nil {
		return transportError("write", err)
	}
	return nil
}

func (w *serverWriter) RemoteAddr() net.Addr {
	return w.conn.RemoteAddr()
}
