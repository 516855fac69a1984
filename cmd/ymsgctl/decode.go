package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zereker/ymsg"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode a hex dump of one or more packets",
	Long: `Decode reassembles packets from a hex dump, for example one copied from a
packet capture. Whitespace and colons between bytes are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\n', '\r', ':':
				return -1
			}
			return r
		}, strings.Join(args, ""))

		data, err := hex.DecodeString(raw)
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}

		packets, rest, err := decodePackets(codec(), data)
		for _, p := range packets {
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(p))
		}
		if err != nil {
			return err
		}
		if rest > 0 {
			logger.Warn("incomplete trailing packet", "bytes", rest)
		}
		return nil
	},
}

// decodePackets splits data into packets and decodes each one. It returns the
// number of bytes left over after the last complete packet.
func decodePackets(codec *ymsg.Codec, data []byte) ([]*ymsg.Packet, int, error) {
	r := ymsg.NewReassembler(codec.MaxPayload())
	r.Append(data)

	blocks, err := r.Drain()
	packets := make([]*ymsg.Packet, 0, len(blocks))
	for _, b := range blocks {
		p, derr := codec.Decode(b)
		if derr != nil {
			return packets, 0, derr
		}
		packets = append(packets, p)
	}
	if err != nil {
		return packets, 0, err
	}
	return packets, r.Buffered(), nil
}
