package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zereker/ymsg/internal/config"
	"github.com/Zereker/ymsg/internal/logging"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	logLevel     string
	hostFlag     string
	portFlag     int
	handleFlag   string
	legacyFlag   bool

	// Shared state set during PersistentPreRun
	cfg       config.Config
	logger    *logging.Logger
	formatter Formatter
)

// rootCmd is the base command for ymsgctl.
var rootCmd = &cobra.Command{
	Use:   "ymsgctl",
	Short: "YMSG client and test pager",
	Long: `ymsgctl talks the YMSG binary protocol. It can log on to a pager server and
send or receive messages, run a local echo pager for testing, and decode packet
dumps offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Override config with flags
		flags := cmd.Flags()
		if flags.Changed("host") {
			cfg.Host = hostFlag
		}
		if flags.Changed("port") {
			cfg.Port = portFlag
		}
		if flags.Changed("handle") {
			cfg.Handle = handleFlag
		}
		if flags.Changed("legacy") {
			cfg.LegacyEncoding = legacyFlag
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}

		logger = logging.NewStderr("ymsgctl", cfg.LogLevel)
		formatter = NewFormatter(outputFormat)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "pager server host")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "pager server port")
	rootCmd.PersistentFlags().StringVar(&handleFlag, "handle", "", "login handle")
	rootCmd.PersistentFlags().BoolVar(&legacyFlag, "legacy", false, "encode text as ISO-8859-1 for legacy servers")

	rootCmd.AddCommand(listenCmd, sendCmd, serveCmd, decodeCmd)
}
