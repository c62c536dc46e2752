package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arloliu/go-comms/logger"
)

const (
	// DefaultReadBufferSize is the default size of the chunk read from a connection at once.
	DefaultReadBufferSize = 4096
)

type config struct {
	logger         logger.Logger
	readBufferSize int
	idleTimeout    time.Duration
	checkOrigin    func(r *http.Request) bool
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:         logger.GetLogger(),
		readBufferSize: DefaultReadBufferSize,
	}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option is a functional option for configuring transports.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(c *config) error { return f(c) }

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(c *config) error {
		if l != nil {
			c.logger = l
		}

		return nil
	})
}

// WithReadBufferSize sets the size of the chunk read from a connection at once.
//
// The value must be in the range [64, 1048576].
func WithReadBufferSize(size int) Option {
	return optFunc(func(c *config) error {
		if size < 64 || size > 1<<20 {
			return fmt.Errorf("read buffer size %d out of range [64, 1048576]", size)
		}
		c.readBufferSize = size

		return nil
	})
}

// WithIdleTimeout closes a connection that received nothing for d. Zero disables the timeout.
func WithIdleTimeout(d time.Duration) Option {
	return optFunc(func(c *config) error {
		if d < 0 {
			return fmt.Errorf("idle timeout %v must not be negative", d)
		}
		c.idleTimeout = d

		return nil
	})
}

// WithCheckOrigin sets the origin check of the websocket upgrader.
// The default rejects cross-origin requests.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return optFunc(func(c *config) error {
		c.checkOrigin = fn
		return nil
	})
}
