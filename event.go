package ymsg

// EventKind identifies an observability notification.
type EventKind int

const (
	// EventBytesSent is emitted after every successful socket write.
	EventBytesSent EventKind = iota
	// EventBytesReceived is emitted after every successful socket read.
	EventBytesReceived
)

func (k EventKind) String() string {
	switch k {
	case EventBytesSent:
		return "bytes_sent"
	case EventBytesReceived:
		return "bytes_received"
	default:
		return "unknown"
	}
}

// Event is delivered to the notify callback. It has no effect on the protocol.
type Event struct {
	Kind  EventKind
	Bytes int
}
