// Package logging adapts zerolog to the ymsg.Logger interface for ymsgctl.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger implements ymsg.Logger on top of a zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New returns a console logger writing to out at the given level. Unknown levels
// fall back to info.
func New(out io.Writer, app, level string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	zl := zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Str("app", app).Logger()
	return &Logger{zl: zl}
}

// NewStderr is New writing to stderr, so stdout stays free for command output.
func NewStderr(app, level string) *Logger {
	return New(os.Stderr, app, level)
}

// Wrap adapts an existing zerolog logger.
func Wrap(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

func (l *Logger) Debug(msg string, args ...any) { l.emit(l.zl.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(l.zl.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(l.zl.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.emit(l.zl.Error(), msg, args) }

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *Logger) emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	ev.Fields(fields(args)).Msg(msg)
}

// fields turns slog-style key/value pairs into a zerolog field map. A trailing key
// without a value is kept under "!BADKEY", as slog does.
func fields(args []any) map[string]any {
	m := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			m["!BADKEY"] = args[i]
			break
		}
		v := args[i+1]
		switch tv := v.(type) {
		case error:
			v = tv.Error()
		case fmt.Stringer:
			v = tv.String()
		}
		m[key] = v
	}
	return m
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
