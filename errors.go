package ymsg

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by codec and connection operations.
var (
	// ErrMalformedPacket is returned when bytes cannot be interpreted as a YMSG packet:
	// truncated header or body, wrong magic, unbalanced payload delimiters or an
	// implausible declared size.
	ErrMalformedPacket = errors.New("ymsg: malformed packet")
	// ErrInvalidPayload is returned when a packet cannot be encoded.
	ErrInvalidPayload = errors.New("ymsg: invalid payload")
	// ErrInvalidState is returned when an operation is not allowed in the current
	// connection state.
	ErrInvalidState = errors.New("ymsg: invalid state")
	// ErrNotConnected is returned by Send when the connection is not established.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrInvalidState)
	// ErrTransportFailure matches socket-level read, write and dial errors.
	ErrTransportFailure = errors.New("ymsg: transport failure")
	// ErrConnectionClosed is returned when the connection closes while a send is pending.
	ErrConnectionClosed = errors.New("ymsg: connection closed")
	// ErrInvalidOnPacket is returned when no packet handler is provided.
	ErrInvalidOnPacket = errors.New("ymsg: invalid on packet callback")
)

// TransportError wraps a socket error with the operation that produced it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "ymsg: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransportFailure as a match so callers can classify without As.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

func transportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
