package ymsg

import (
	"context"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// ErrorAction defines the action to take when a packet handler fails.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and keeps dispatching packets.
	Continue
)

// DialFunc opens the transport connection.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// options holds the configuration for a connection.
type options struct {
	codec  *Codec
	logger Logger
	dial   DialFunc

	onPacket func(*Packet) error
	// onError is called for every error observed by the connection loops. Its
	// result only matters for handler errors; malformed streams and transport
	// failures always close the connection.
	onError  func(error) ErrorAction
	onNotify func(Event)

	bufferSize     int           // capacity of the inbound dispatch queue
	readBufferSize int           // size of a single socket read
	maxPayload     int           // largest declared body accepted from the stream
	connectTimeout time.Duration // dial deadline
	sendTimeout    time.Duration // deadline for acquiring the send token
	readTimeout    time.Duration // idle read deadline, 0 disables it
	writeTimeout   time.Duration // deadline for a single socket write

	sendLimit rate.Limit
	sendBurst int
}

// Option is a function that configures connection options.
type Option func(*options)

// CustomCodecOption sets the packet codec. Defaults to NewCodec().
func CustomCodecOption(codec *Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// BufferSizeOption sets how many decoded packets may wait for the handler before
// the receive loop stops reading.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// ReadBufferSizeOption sets the size of a single socket read.
func ReadBufferSizeOption(size int) Option {
	return func(o *options) {
		o.readBufferSize = size
	}
}

// MaxPayloadSizeOption caps the body size a peer may declare. Streams declaring a
// larger body are treated as malformed and the connection is closed.
func MaxPayloadSizeOption(size int) Option {
	return func(o *options) {
		o.maxPayload = size
	}
}

// ConnectTimeoutOption bounds how long Connect waits for the dial.
func ConnectTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = timeout
	}
}

// SendTimeoutOption bounds how long Send waits for the connection to be
// established and for the send token, when the caller's context has no deadline.
func SendTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.sendTimeout = timeout
	}
}

// ReadTimeoutOption closes the connection when nothing is received for the given
// duration. Zero, the default, waits forever.
func ReadTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.readTimeout = timeout
	}
}

// WriteTimeoutOption sets the deadline of a single socket write.
func WriteTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = timeout
	}
}

// SendRateOption throttles outgoing packets to limit per second with the given
// burst. Pager servers disconnect clients that flood them.
func SendRateOption(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.sendLimit = limit
		o.sendBurst = burst
	}
}

// DialerOption replaces the function used to open the transport connection.
func DialerOption(dial DialFunc) Option {
	return func(o *options) {
		o.dial = dial
	}
}

// OnErrorOption sets the error callback.
// Return Disconnect to close the connection on a handler error, or Continue to
// suppress it.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnPacketOption sets the packet handler. It is required and is invoked for every
// received packet, in arrival order, outside the receive loop.
func OnPacketOption(cb func(*Packet) error) Option {
	return func(o *options) {
		o.onPacket = cb
	}
}

// OnNotifyOption sets the observability callback invoked with byte counts on
// every successful send and receive.
func OnNotifyOption(cb func(Event)) Option {
	return func(o *options) {
		o.onNotify = cb
	}
}

// LoggerOption sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
