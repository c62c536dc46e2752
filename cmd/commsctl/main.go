// Commsctl encodes, decodes and serves messages of the demo protocol.
//
// Usage:
//
//	commsctl encode msg1 --meters 0.1 --mode Run
//	commsctl encode msg1 --meters 0.1 | commsctl decode --hex
//	commsctl serve --tcp 127.0.0.1:5000 --ws 127.0.0.1:8080
//
// See 'commsctl --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-comms/logger"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	logBackend string

	cfg Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "commsctl",
		Short: "Demo protocol tool",
		Long: `Encode, decode and serve framed messages of the demo protocol.

Frames are laid out as sync(AB CD) | size(u16) | id(u8) | payload | crc16-ccitt.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logBackend, "log-backend", "", "Log backend (slog, zap)")

	cmd.AddCommand(newDecodeCmd(opts))
	cmd.AddCommand(newEncodeCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads the config file, applies flag overrides and installs the logger.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.configPath != "" {
		cfg, err := LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		o.cfg = cfg
	}

	if cmd.Flags().Changed("log-level") {
		o.cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-backend") {
		o.cfg.LogBackend = o.logBackend
	}

	if err := o.cfg.Validate(); err != nil {
		return err
	}

	l, err := o.cfg.newLogger()
	if err != nil {
		return err
	}
	logger.SetLogger(l)

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "commsctl %s\n", Version)
		},
	}
}
