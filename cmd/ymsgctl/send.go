package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zereker/ymsg"
)

var sendCmd = &cobra.Command{
	Use:   "send <to> <text>...",
	Short: "Log on and send one private message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Handle == "" {
			return errors.New("a login handle is required (--handle or handle in config)")
		}
		ctx := cmd.Context()

		conn, stop, err := connect(ctx, func(*ymsg.Packet) error { return nil })
		if err != nil {
			return err
		}
		defer stop()

		to, text := args[0], strings.Join(args[1:], " ")
		if err := conn.SendMessage(ctx, cfg.Handle, to, text); err != nil {
			return err
		}
		logger.Info("message sent", "to", strings.TrimSpace(to), "bytes", len(text))
		return nil
	},
}
