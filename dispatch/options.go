package dispatch

import "github.com/arloliu/go-comms/logger"

// Option is a functional option for configuring a Dispatcher.
type Option interface {
	apply(*Dispatcher)
}

type optFunc func(*Dispatcher)

func (f optFunc) apply(d *Dispatcher) { f(d) }

// WithStrict makes Dispatch return ErrUnhandled for messages that reached the fallback.
func WithStrict() Option {
	return optFunc(func(d *Dispatcher) { d.strict = true })
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	})
}
