package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zereker/ymsg"
)

var (
	serveShutdown time.Duration
	serveListen   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local echo pager for testing clients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.ListenAddr = serveListen
		}
		addr, err := net.ResolveTCPAddr("tcp", cfg.ListenAddr)
		if err != nil {
			return err
		}

		server, err := ymsg.New(addr,
			ymsg.ServerLoggerOption(logger),
			ymsg.ServerCodecOption(codec()),
			ymsg.ServerShutdownTimeoutOption(serveShutdown),
		)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		err = server.Serve(ctx, newEchoPager(cmd))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().DurationVar(&serveShutdown, "shutdown-timeout", 0, "grace period for open connections on interrupt")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config)")
}

// echoPager assigns a session id on login and echoes private messages back to
// their sender. Every packet it receives is printed.
type echoPager struct {
	cmd       *cobra.Command
	sessionID atomic.Int32
}

func newEchoPager(cmd *cobra.Command) *echoPager {
	return &echoPager{cmd: cmd}
}

func (e *echoPager) ServeYMSG(w ymsg.PacketWriter, p *ymsg.Packet) {
	fmt.Fprint(e.cmd.OutOrStdout(), formatter.Format(p))

	var reply *ymsg.Packet
	switch p.Service {
	case ymsg.ServiceLogin:
		reply = ymsg.NewPacket(ymsg.ServiceLogin, 0)
		reply.SessionID = e.sessionID.Add(1)
		reply.Add("1", p.Value("1"))
		logger.Info("user logged in", "remote_addr", w.RemoteAddr(), "handle", p.Value("1"), "session_id", reply.SessionID)
	case ymsg.ServiceMessage:
		reply = ymsg.MessagePacket(p.Value("5"), p.Value("1"), p.Value("14"), "")
		reply.SessionID = p.SessionID
	default:
		return
	}

	if err := w.WritePacket(reply); err != nil {
		logger.Warn("reply failed", "remote_addr", w.RemoteAddr(), "error", err)
	}
}
