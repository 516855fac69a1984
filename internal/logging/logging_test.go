package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Zereker/ymsg"
)

var _ ymsg.Logger = (*Logger)(nil)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := Wrap(zerolog.New(&buf))

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5050}
	l.Warn("malformed stream", "addr", addr, "buffered", 12, "error", errors.New("bad magic"))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["level"] != "warn" || got["message"] != "malformed stream" {
		t.Fatalf("unexpected line: %v", got)
	}
	if got["addr"] != "127.0.0.1:5050" {
		t.Fatalf("unexpected addr: %v", got["addr"])
	}
	if got["buffered"] != float64(12) {
		t.Fatalf("unexpected buffered: %v", got["buffered"])
	}
	if got["error"] != "bad magic" {
		t.Fatalf("unexpected error: %v", got["error"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := Wrap(zerolog.New(&buf).Level(ParseLevel("warn")))

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	l.Error("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestFieldsOddArgs(t *testing.T) {
	m := fields([]any{"a", 1, 7, "x", "dangling"})
	if m["a"] != 1 || m["7"] != "x" || m["!BADKEY"] != "dangling" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"trace":   zerolog.TraceLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "ymsgctl", "info")
	l.Info("connected", "addr", "pager:5050")
	if !bytes.Contains(buf.Bytes(), []byte("connected")) {
		t.Fatalf("expected console line, got %q", buf.String())
	}
}
