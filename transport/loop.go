package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/message"
)

// readDeadliner is implemented by readers whose blocking Read can be interrupted.
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// ReadLoop reads r in chunks, feeds stream and dispatches every decoded message to d.
//
// Bad frames are logged and skipped. ReadLoop returns nil when r reaches EOF, ctx.Err()
// when ctx is done, and the read error otherwise. A blocked Read is interrupted on
// cancellation only if r has a SetReadDeadline method, as net.Conn does.
func ReadLoop(ctx context.Context, r io.Reader, stream *frame.Stream, d frame.Dispatcher, opts ...Option) error {
	cfg, err := newConfig(opts)
	if err != nil {
		return err
	}

	return readLoop(ctx, r, stream, d, cfg, &Metrics{})
}

func readLoop(ctx context.Context, r io.Reader, stream *frame.Stream, d frame.Dispatcher, cfg *config, metrics *Metrics) error {
	dl, hasDeadline := r.(readDeadliner)
	if hasDeadline {
		stop := context.AfterFunc(ctx, func() {
			_ = dl.SetReadDeadline(time.Now())
		})
		defer stop()
	}

	buf := make([]byte, cfg.readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if hasDeadline && cfg.idleTimeout > 0 {
			if err := dl.SetReadDeadline(time.Now().Add(cfg.idleTimeout)); err != nil {
				return fmt.Errorf("set idle deadline: %w", err)
			}
			// a cancellation racing the deadline above has lost its wakeup
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			metrics.addBytesRead(n)
			if _, err := stream.Process(buf[:n], d); err != nil {
				metrics.incFrameErrCount()
				cfg.logger.Warn("bad frames in stream", "error", err, "buffered", stream.Buffered())
			}
		}

		switch {
		case readErr == nil:
			continue
		case errors.Is(readErr, io.EOF):
			if stream.Buffered() > 0 {
				cfg.logger.Debug("stream closed with a partial frame", "buffered", stream.Buffered())
			}
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case isTimeout(readErr):
			return fmt.Errorf("idle timeout: %w", readErr)
		default:
			return readErr
		}
	}
}

// Send frames msg with f and writes it to w.
func Send(w io.Writer, f *frame.Frame, msg message.Message) error {
	data, err := f.Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)

	return err
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
