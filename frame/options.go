package frame

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-comms/logger"
)

// DefaultMaxBuffered is the default cap of bytes a Stream keeps while waiting for a complete frame.
const DefaultMaxBuffered = 1 << 20

// Option is a functional option for configuring a Frame.
type Option interface {
	apply(*Frame) error
}

type optFunc func(*Frame) error

func (f optFunc) apply(fr *Frame) error { return f(fr) }

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(f *Frame) error {
		if l == nil {
			return errors.New("frame: nil logger")
		}
		f.logger = l

		return nil
	})
}

// WithDefaultID sets the message ID of frames without an ID layer.
func WithDefaultID(id uint64) Option {
	return optFunc(func(f *Frame) error {
		f.defaultID = id
		return nil
	})
}

// WithMaxBuffered sets the number of bytes a Stream buffers before dropping the oldest ones.
func WithMaxBuffered(n int) Option {
	return optFunc(func(f *Frame) error {
		if n <= 0 {
			return fmt.Errorf("frame: max buffered %d must be positive", n)
		}
		f.maxBuffered = n

		return nil
	})
}
