// Package dispatch routes decoded messages to typed handlers with a mandatory fallback.
//
// Typed handlers are keyed by the dynamic Go type of the message:
//
//	d := dispatch.New(fallback)
//	dispatch.Handle(d, func(m *demo.Msg1) { ... })
//
//	err := d.Dispatch(msg) // exactly one handler runs
//
// Messages without a typed handler, including *message.Raw values for unregistered
// IDs, go to the fallback. The fallback never fails by default;
// WithStrict opts in to ErrUnhandled.
//
// A Dispatcher satisfies frame.Dispatcher.
package dispatch
