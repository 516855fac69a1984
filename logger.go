package ymsg

import "log/slog"

// Logger receives the structured logs of a Conn and a Server: connect and close
// events at Info, malformed streams at Warn, per-loop errors at Debug. Arguments
// are slog-style key/value pairs such as "addr", "session_id" and "error".
//
// *slog.Logger satisfies it directly. ymsgctl passes a zerolog-backed
// implementation, see internal/logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultLogger is used by Conn and Server when no logger option is given.
func defaultLogger() Logger {
	return slog.Default()
}
