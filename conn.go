// Package ymsg implements a client for the YMSG instant-messaging wire protocol.
// It provides the packet codec, reassembly of packets from a chunked TCP stream,
// and a duplex connection that dispatches received packets and serializes sends.
package ymsg

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// State is the lifecycle state of a Conn.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Default configuration values.
const (
	defaultBufferSize     = 64
	defaultReadBufferSize = 8 * 1024
	defaultConnectTimeout = 30 * time.Second
	defaultSendTimeout    = 30 * time.Second
	defaultWriteTimeout   = 30 * time.Second
)

type sendRequest struct {
	data   []byte
	result chan error
}

// Conn is a client connection to a YMSG pager server.
//
// A Conn is used once: Connect establishes it, and after it closes a new Conn is
// needed to reconnect. Received packets are decoded on a single receive loop and
// handed to the OnPacketOption handler in arrival order. Sends are written by a
// single writer goroutine, one at a time, in the order callers handed them over.
type Conn struct {
	opts        options
	codec       *Codec
	logger      Logger
	reassembler *Reassembler
	limiter     *rate.Limiter

	mu             sync.Mutex
	state          atomic.Int32
	rawConn        net.Conn
	cancel         context.CancelFunc
	closeRequested bool

	sessionID atomic.Int32
	inbound   chan *Packet
	sendMsg   chan *sendRequest

	ready    chan struct{} // closed once the connect attempt resolves
	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// NewConn creates an idle connection with the given options.
// Returns an error if the packet handler is missing.
func NewConn(opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	c := &Conn{
		opts:        opts,
		codec:       opts.codec,
		logger:      opts.logger,
		reassembler: NewReassembler(opts.maxPayload),
		inbound:     make(chan *Packet, opts.bufferSize),
		sendMsg:     make(chan *sendRequest),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
	}
	if opts.sendLimit > 0 {
		c.limiter = rate.NewLimiter(opts.sendLimit, opts.sendBurst)
	}
	return c, nil
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.onPacket == nil {
		return ErrInvalidOnPacket
	}

	if opts.codec == nil {
		opts.codec = NewCodec()
	}

	if opts.bufferSize <= 0 {
		opts.bufferSize = defaultBufferSize
	}

	if opts.readBufferSize <= 0 {
		opts.readBufferSize = defaultReadBufferSize
	}

	if opts.maxPayload <= 0 || opts.maxPayload > opts.codec.MaxPayload() {
		opts.maxPayload = opts.codec.MaxPayload()
	}

	if opts.connectTimeout <= 0 {
		opts.connectTimeout = defaultConnectTimeout
	}

	if opts.sendTimeout <= 0 {
		opts.sendTimeout = defaultSendTimeout
	}

	if opts.writeTimeout <= 0 {
		opts.writeTimeout = defaultWriteTimeout
	}

	if opts.readTimeout < 0 {
		opts.readTimeout = 0
	}

	if opts.sendLimit > 0 && opts.sendBurst <= 0 {
		opts.sendBurst = 1
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.onNotify == nil {
		opts.onNotify = func(Event) {}
	}

	if opts.dial == nil {
		var d net.Dialer
		opts.dial = d.DialContext
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

// Connect dials host:port and starts the receive, dispatch and write loops.
// It fails with ErrInvalidState unless the connection is idle. The dial is bounded
// by ctx and by ConnectTimeoutOption. Sends issued while Connect is in progress
// wait for it and fail with ErrNotConnected if it fails.
func (c *Conn) Connect(ctx context.Context, host string, port int) error {
	c.mu.Lock()
	if state := c.State(); state != StateIdle {
		c.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "connect while %s", state)
	}
	c.state.Store(int32(StateConnecting))
	c.mu.Unlock()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c.logger.Debug("connecting", "addr", addr, "timeout", c.opts.connectTimeout)

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.connectTimeout)
	raw, err := c.opts.dial(dialCtx, "tcp", addr)
	cancel()

	c.mu.Lock()
	if err != nil {
		err = transportError("dial", err)
	} else if c.closeRequested {
		_ = raw.Close()
		err = ErrConnectionClosed
	}
	if err != nil {
		c.state.Store(int32(StateClosed))
		close(c.ready)
		c.mu.Unlock()

		c.logger.Info("connect failed", "addr", addr, "error", err)
		c.opts.onError(err)
		c.finish(err)
		return err
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	c.rawConn = raw
	c.cancel = cancelRun
	c.state.Store(int32(StateConnected))
	close(c.ready)
	c.mu.Unlock()

	go c.run(runCtx)
	return nil
}

// Send encodes p and writes it to the connection, returning once the write has
// completed. If the connection has learned a session id from the server, it is
// stamped onto p before encoding.
//
// Send fails with ErrNotConnected when the connection was never started or is
// closed. While a Connect is in progress it waits for the outcome. Waiting for the
// connection and for the send token is bounded by ctx or, when ctx has no deadline,
// by SendTimeoutOption.
func (c *Conn) Send(ctx context.Context, p *Packet) error {
	if p == nil {
		return errors.Wrap(ErrInvalidPayload, "nil packet")
	}

	switch c.State() {
	case StateIdle, StateClosed:
		return ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.sendTimeout)
		defer cancel()
	}

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.State() != StateConnected {
		return ErrNotConnected
	}

	if sid := c.sessionID.Load(); sid != 0 {
		p.SessionID = sid
	}

	data, err := c.codec.Encode(p)
	if err != nil {
		return err
	}

	req := &sendRequest{data: data, result: make(chan error, 1)}
	select {
	case c.sendMsg <- req:
	case <-c.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-c.done:
		select {
		case err := <-req.result:
			return err
		default:
			return ErrConnectionClosed
		}
	}
}

// SendTimeout is Send with a timeout instead of a context.
func (c *Conn) SendTimeout(p *Packet, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Send(ctx, p)
}

// Close closes the connection. Pending sends fail and the loops stop.
// Closing an idle connection makes later Connect and Send calls fail.
// Safe to call multiple times.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateIdle:
		c.state.Store(int32(StateClosed))
		close(c.ready)
		c.finish(nil)
	case StateConnecting:
		c.closeRequested = true
	case StateConnected:
		c.state.Store(int32(StateClosed))
		c.cancel()
		return c.rawConn.Close()
	}
	return nil
}

// Wait blocks until the connection is closed and returns the error that closed
// it: the first loop failure, context.Canceled after Close, or the connect error.
func (c *Conn) Wait() error {
	<-c.done
	return c.err
}

// Done returns a channel closed once the connection has fully shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// SessionID returns the session id learned from received packets, or 0.
func (c *Conn) SessionID() int32 {
	return c.sessionID.Load()
}

// Addr returns the remote address, or nil before the connection is established.
func (c *Conn) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rawConn == nil {
		return nil
	}
	return c.rawConn.RemoteAddr()
}

// run supervises the loops and tears the connection down when any of them fails.
func (c *Conn) run(ctx context.Context) {
	addr := c.Addr()
	c.logger.Info("connection established", "addr", addr)
	c.logger.Debug("connection options", "addr", addr,
		"buffer_size", c.opts.bufferSize,
		"read_buffer_size", c.opts.readBufferSize,
		"max_payload", c.opts.maxPayload,
		"text_encoding", c.codec.TextEncoding(),
		"read_timeout", c.opts.readTimeout,
		"write_timeout", c.opts.writeTimeout)

	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	// Dispatch outlives a read failure until the queue is drained.
	group.Go(func() error {
		return c.dispatchLoop(ctx)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	// A blocked Read only returns once the socket is closed.
	stop := context.AfterFunc(child, func() {
		_ = c.rawConn.Close()
	})

	err := group.Wait()
	stop()
	c.closeConn()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("connection closed with error", "addr", addr, "error", err)
	} else {
		c.logger.Info("connection closed", "addr", addr)
	}

	c.finish(err)
}

// readLoop keeps exactly one read outstanding. Each chunk is handed to the
// reassembler before the next read is issued.
func (c *Conn) readLoop(ctx context.Context) error {
	// readLoop is the only sender on inbound.
	defer close(c.inbound)

	buf := make([]byte, c.opts.readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if c.opts.readTimeout > 0 {
			_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.readTimeout))
		}

		n, err := c.rawConn.Read(buf)
		if n > 0 {
			c.opts.onNotify(Event{Kind: EventBytesReceived, Bytes: n})
			if rerr := c.receive(ctx, buf[:n]); rerr != nil {
				return rerr
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err = transportError("read", err)
			c.logger.Debug("read error", "addr", c.Addr(), "error", err)
			c.opts.onError(err)
			return err
		}
	}
}

// receive feeds chunk to the reassembler and queues every completed packet.
func (c *Conn) receive(ctx context.Context, chunk []byte) error {
	c.reassembler.Append(chunk)
	blocks, err := c.reassembler.Drain()

	for _, block := range blocks {
		p, derr := c.codec.Decode(block)
		if derr != nil {
			err = derr
			break
		}
		if p.SessionID != 0 {
			c.sessionID.Store(p.SessionID)
		}

		select {
		case c.inbound <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err != nil {
		c.logger.Warn("malformed stream", "addr", c.Addr(), "buffered", c.reassembler.Buffered(), "error", err)
		c.opts.onError(err)
		return err
	}
	return nil
}

// dispatchLoop delivers queued packets to the handler until the receive loop has
// stopped and the queue is empty. It returns early only after Close or when the
// handler error closes the connection.
func (c *Conn) dispatchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-c.inbound:
			if !ok {
				return nil
			}
			if err := c.opts.onPacket(p); err != nil {
				c.logger.Debug("packet handler error", "addr", c.Addr(), "service", p.Service, "error", err)
				if c.opts.onError(err) == Disconnect {
					return err
				}
			}
		}
	}
}

// writeLoop is the only writer on the socket. Receiving a request from sendMsg
// hands the send token to that caller until its write completes.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.sendMsg:
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					req.result <- ErrConnectionClosed
					return err
				}
			}

			err := c.write(req.data)
			req.result <- err
			if err != nil {
				return err
			}
		}
	}
}

// write sends data to the connection with a deadline.
func (c *Conn) write(data []byte) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout))

	n, err := c.rawConn.Write(data)
	if err != nil {
		err = transportError("write", err)
		c.logger.Debug("write error", "addr", c.Addr(), "error", err)
		c.opts.onError(err)
		return err
	}

	c.opts.onNotify(Event{Kind: EventBytesSent, Bytes: n})
	return nil
}

// closeConn marks the connection as closed and closes the underlying socket.
func (c *Conn) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store(int32(StateClosed))
	_ = c.rawConn.Close()
}

func (c *Conn) finish(err error) {
	c.doneOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}
