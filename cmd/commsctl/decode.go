package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/internal/util"
	"github.com/arloliu/go-comms/message"
	"github.com/arloliu/go-comms/protocol/demo"
)

// printer writes every dispatched message on its own line.
type printer struct {
	w     io.Writer
	count int
}

func (p *printer) HandleMsg1(msg *demo.Msg1) {
	p.print(msg, fmt.Sprintf("distance=%gm mode=%s", msg.FieldF1().Meters(), msg.FieldF2().ValueName()))
}

func (p *printer) HandleMsg2(msg *demo.Msg2) {
	p.print(msg, fmt.Sprintf("distance=%gm duration=%gs", msg.FieldF1().Meters(), msg.FieldF2().Seconds()))
}

func (p *printer) HandleMessage(msg message.Message) { p.print(msg, "") }

func (p *printer) print(msg message.Message, summary string) {
	p.count++
	if summary == "" {
		fmt.Fprintln(p.w, msg)
		return
	}
	fmt.Fprintf(p.w, "%s  # %s\n", msg, summary)
}

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	var hexInput bool

	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode a dump of framed messages",
		Long: `Decode a byte dump of demo frames and print every message.

The input is read from the file argument, or from stdin when it is "-" or omitted.
With --hex the input is hex text; spaces, colons, commas and 0x prefixes are ignored.
Bad frames are reported on stderr and skipped.`,
		Example: `  commsctl decode capture.bin
  commsctl encode msg1 --meters 0.1 | commsctl decode --hex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if hexInput {
				if data, err = util.ParseHex(string(data)); err != nil {
					return err
				}
			}

			f, err := demo.NewFrame(frame.WithMaxBuffered(opts.cfg.Serve.MaxBuffered))
			if err != nil {
				return err
			}

			return decode(cmd, f, data)
		},
	}

	cmd.Flags().BoolVar(&hexInput, "hex", false, "Input is hex text instead of raw bytes")

	return cmd
}

func decode(cmd *cobra.Command, f *frame.Frame, data []byte) error {
	p := &printer{w: cmd.OutOrStdout()}
	d := demo.NewDispatcher(p)

	n, err := f.ProcessInputData(data, d)
	if err != nil {
		for _, e := range unwrapJoined(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "bad frame: %v\n", e)
		}
	}

	if rest := len(data) - n; rest > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "incomplete frame: %d trailing bytes %s\n", rest, util.FormatHex(data[n:], 16))
	}

	m := f.Metrics()
	fmt.Fprintf(cmd.ErrOrStderr(), "%d messages, %d bytes skipped, %d checksum errors\n",
		p.count, m.SkippedBytes.Load(), m.ChecksumErrCount.Load())

	if p.count == 0 && len(data) > 0 {
		return errors.New("no message decoded")
	}

	return nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return data, nil
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint
		return joined.Unwrap()
	}

	return []error{err}
}
