package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/arloliu/go-comms/logger"
	"github.com/arloliu/go-comms/message"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	// ErrBusy indicates a Dispatch call made while another dispatch is in progress,
	// e.g. from inside a handler.
	ErrBusy = errors.New("dispatcher busy")

	// ErrUnhandled indicates a message routed to the fallback by a strict dispatcher.
	ErrUnhandled = errors.New("unhandled message type")
)

// Handler is the fallback of a dispatcher. It receives every message without a typed handler.
type Handler interface {
	HandleMessage(msg message.Message)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(msg message.Message)

// HandleMessage calls f(msg).
func (f HandlerFunc) HandleMessage(msg message.Message) { f(msg) }

// NopHandler is a Handler that ignores every message.
type NopHandler struct{}

// HandleMessage implements Handler.
func (NopHandler) HandleMessage(message.Message) {}

// Dispatcher routes each message to the handler registered for its dynamic type, or to the fallback.
//
// Handlers are registered with Handle. Registration is safe at any time; Dispatch is
// not reentrant and reports ErrBusy when called while another dispatch runs.
type Dispatcher struct {
	handlers *xsync.MapOf[reflect.Type, func(message.Message)]
	fallback Handler
	state    atomic.Uint32
	strict   bool
	logger   logger.Logger
	metrics  Metrics
}

// New creates a dispatcher with fallback as its default handler. A nil fallback means NopHandler.
func New(fallback Handler, opts ...Option) *Dispatcher {
	if fallback == nil {
		fallback = NopHandler{}
	}

	d := &Dispatcher{
		handlers: xsync.NewMapOf[reflect.Type, func(message.Message)](),
		fallback: fallback,
		logger:   logger.GetLogger(),
	}
	d.state.Store(uint32(Idle))

	for _, opt := range opts {
		opt.apply(d)
	}

	return d
}

// Handle registers fn for messages of type T, replacing any previous handler of T.
//
// T is the concrete message type, e.g. *demo.Msg1.
func Handle[T message.Message](d *Dispatcher, fn func(T)) {
	if fn == nil {
		d.handlers.Delete(reflect.TypeFor[T]())
		return
	}

	d.handlers.Store(reflect.TypeFor[T](), func(msg message.Message) {
		fn(msg.(T)) //nolint:forcetypeassert
	})
}

// Handles reports whether a typed handler is registered for the dynamic type of msg.
func (d *Dispatcher) Handles(msg message.Message) bool {
	_, ok := d.handlers.Load(reflect.TypeOf(msg))
	return ok
}

// State returns the current dispatch state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Metrics returns the dispatch counters.
func (d *Dispatcher) Metrics() *Metrics {
	return &d.metrics
}

// Dispatch invokes exactly one handler for msg: the typed handler of its dynamic type
// when registered, the fallback otherwise.
//
// It returns ErrBusy when another dispatch is in progress, and ErrUnhandled after the
// fallback ran if the dispatcher is strict.
func (d *Dispatcher) Dispatch(msg message.Message) error {
	if msg == nil {
		return errors.New("dispatch: nil message")
	}

	if !d.state.CompareAndSwap(uint32(Idle), uint32(MessageReceived)) {
		d.metrics.incBusyCount()
		return fmt.Errorf("%w: %s while %s", ErrBusy, msg.Name(), d.State())
	}
	defer d.state.Store(uint32(Idle))

	fn, typed := d.handlers.Load(reflect.TypeOf(msg))

	d.state.Store(uint32(Dispatched))
	if typed {
		d.metrics.incDispatchedCount()
		fn(msg)

		return nil
	}

	d.metrics.incFallbackCount()
	d.logger.Debug("message routed to fallback", "id", msg.ID(), "message", msg.Name())
	d.fallback.HandleMessage(msg)

	if d.strict {
		return fmt.Errorf("%w: %s(%d)", ErrUnhandled, msg.Name(), msg.ID())
	}

	return nil
}
