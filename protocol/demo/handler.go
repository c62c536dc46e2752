package demo

import (
	"github.com/arloliu/go-comms/dispatch"
	"github.com/arloliu/go-comms/message"
)

// Handler receives demo messages. HandleMessage is the fallback for every message
// without a typed handler, including unregistered IDs.
//
// An implementation opts in to typed messages by implementing Msg1Handler,
// Msg2Handler, TextHandler or StatusHandler.
type Handler interface {
	dispatch.Handler
}

// Msg1Handler handles Msg1.
type Msg1Handler interface {
	HandleMsg1(msg *Msg1)
}

// Msg2Handler handles Msg2.
type Msg2Handler interface {
	HandleMsg2(msg *Msg2)
}

// TextHandler handles Text.
type TextHandler interface {
	HandleText(msg *Text)
}

// StatusHandler handles Status.
type StatusHandler interface {
	HandleStatus(msg *Status)
}

// BaseHandler provides a no-op fallback. Embed it to implement only typed handlers.
type BaseHandler struct{}

// HandleMessage implements Handler.
func (BaseHandler) HandleMessage(message.Message) {}

// NewDispatcher creates a dispatcher routing messages to h.
func NewDispatcher(h Handler, opts ...dispatch.Option) *dispatch.Dispatcher {
	d := dispatch.New(h, opts...)

	if th, ok := h.(Msg1Handler); ok {
		dispatch.Handle(d, th.HandleMsg1)
	}
	if th, ok := h.(Msg2Handler); ok {
		dispatch.Handle(d, th.HandleMsg2)
	}
	if th, ok := h.(TextHandler); ok {
		dispatch.Handle(d, th.HandleText)
	}
	if th, ok := h.(StatusHandler); ok {
		dispatch.Handle(d, th.HandleStatus)
	}

	return d
}
