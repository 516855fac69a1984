package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zereker/ymsg"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Log on and print received packets until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		out := cmd.OutOrStdout()
		conn, stop, err := connect(ctx, func(p *ymsg.Packet) error {
			_, err := fmt.Fprint(out, formatter.Format(p))
			return err
		})
		if err != nil {
			return err
		}
		defer stop()

		select {
		case <-ctx.Done():
			logger.Info("interrupted, closing connection")
			_ = conn.Close()
			<-conn.Done()
			return nil
		case <-conn.Done():
			if err := conn.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	},
}
