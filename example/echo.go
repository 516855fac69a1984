package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zereker/ymsg"
)

// An echo bot: it logs on to a pager and replies to every private message with
// the same text. Run `ymsgctl serve` for a local pager to talk to.
func main() {
	host := flag.String("host", "127.0.0.1", "pager host")
	port := flag.Int("port", 5050, "pager port")
	handle := flag.String("handle", "echobot", "login handle")
	flag.Parse()

	src := ymsg.StaticCookies{CookieY: os.Getenv("YMSG_COOKIE_Y"), CookieT: os.Getenv("YMSG_COOKIE_T")}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	creds, err := src.Cookies(ctx, *handle, "")
	if err != nil {
		slog.Error("no login cookies, set YMSG_COOKIE_Y and YMSG_COOKIE_T", "error", err)
		return
	}

	var conn *ymsg.Conn
	onPacket := ymsg.OnPacketOption(func(p *ymsg.Packet) error {
		if p.Service != ymsg.ServiceMessage {
			return nil
		}
		from, text := p.Value("4"), p.Value("14")
		if from == "" {
			from = p.Value("1")
		}
		if from == "" || from == *handle {
			return nil
		}
		// Send outside the dispatch goroutine.
		go func() {
			if err := conn.SendMessage(ctx, *handle, from, text); err != nil {
				slog.Error("echo failed", "to", from, "error", err)
			}
		}()
		return nil
	})
	errorOption := ymsg.OnErrorOption(func(err error) ymsg.ErrorAction {
		slog.Error("connection error", "error", err)
		return ymsg.Continue
	})

	conn, err = ymsg.NewConn(onPacket, errorOption)
	if err != nil {
		panic(err)
	}

	if err := conn.Connect(ctx, *host, *port); err != nil {
		slog.Error("connect failed", "error", err)
		return
	}
	defer conn.Close()

	if err := conn.Logon(ctx, creds); err != nil {
		slog.Error("logon failed", "error", err)
		return
	}
	slog.Info("echo bot online", "handle", creds.Handle, "addr", conn.Addr())

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case <-conn.Done():
		slog.Info("connection closed", "error", conn.Wait())
	}
}
