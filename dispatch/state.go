package dispatch

// State represents the stage of a dispatcher while it routes one message.
type State uint32

// Dispatcher states. A dispatch moves through Idle, MessageReceived and Dispatched
// and returns to Idle once the handler finished.
const (
	// Idle indicates that the dispatcher is ready for the next message.
	Idle State = iota
	// MessageReceived indicates that a message was accepted and a handler is being resolved.
	MessageReceived
	// Dispatched indicates that a handler is running.
	Dispatched
)

// String returns string representation of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case MessageReceived:
		return "message-received"
	case Dispatched:
		return "dispatched"
	default:
		return "unknown"
	}
}
