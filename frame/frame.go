package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/go-comms/logger"
	"github.com/arloliu/go-comms/message"
)

// Dispatcher receives the messages decoded by ProcessInputData and Stream.Process.
type Dispatcher interface {
	Dispatch(msg message.Message) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(msg message.Message) error

// Dispatch calls f(msg).
func (f DispatcherFunc) Dispatch(msg message.Message) error { return f(msg) }

// Frame is an immutable frame definition made of ordered layers, outermost first.
// It is safe for concurrent use.
type Frame struct {
	registry    *message.Registry
	layers      []Layer
	sync        *SyncLayer
	hasID       bool
	defaultID   uint64
	maxBuffered int
	logger      logger.Logger
	metrics     *Metrics
}

// New creates a frame definition from layers, outermost first.
//
// The layers must contain exactly one Payload, as the last layer, at most one
// Sync, Size and ID layer, and only Checksum layers may precede the Sync layer.
// A frame without an ID layer carries the ID set by WithDefaultID.
func New(registry *message.Registry, layers []Layer, opts ...Option) (*Frame, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidFrame)
	}

	f := &Frame{
		registry:    registry,
		layers:      append([]Layer(nil), layers...),
		maxBuffered: DefaultMaxBuffered,
		logger:      logger.GetLogger(),
		metrics:     &Metrics{},
	}

	for _, opt := range opts {
		if err := opt.apply(f); err != nil {
			return nil, err
		}
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// MustNew is like New but panics on an invalid definition.
func MustNew(registry *message.Registry, layers []Layer, opts ...Option) *Frame {
	f, err := New(registry, layers, opts...)
	if err != nil {
		panic(err)
	}

	return f
}

func (f *Frame) validate() error {
	if len(f.layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidFrame)
	}

	hasSize := false
	onlyChecksums := true
	for i, layer := range f.layers {
		switch l := layer.(type) {
		case *SyncLayer:
			if f.sync != nil {
				return fmt.Errorf("%w: more than one sync layer", ErrInvalidFrame)
			}
			if !onlyChecksums {
				return fmt.Errorf("%w: sync layer must precede all but checksum layers", ErrInvalidFrame)
			}
			if len(l.pattern) == 0 {
				return fmt.Errorf("%w: empty sync pattern", ErrInvalidFrame)
			}
			f.sync = l
		case *SizeLayer:
			if hasSize {
				return fmt.Errorf("%w: more than one size layer", ErrInvalidFrame)
			}
			hasSize = true
			onlyChecksums = false
			if err := l.validate(); err != nil {
				return err
			}
			l.minInner = 0
			for _, inner := range f.layers[i+1:] {
				l.minInner += inner.minLength()
			}
		case *IDLayer:
			if f.hasID {
				return fmt.Errorf("%w: more than one id layer", ErrInvalidFrame)
			}
			f.hasID = true
			onlyChecksums = false
			if err := l.validate(); err != nil {
				return err
			}
		case *ChecksumLayer:
			if err := l.validate(); err != nil {
				return err
			}
		case *PayloadLayer:
			if i != len(f.layers)-1 {
				return fmt.Errorf("%w: payload must be the last layer", ErrInvalidFrame)
			}
			onlyChecksums = false
		case nil:
			return fmt.Errorf("%w: nil layer at %d", ErrInvalidFrame, i)
		default:
			return fmt.Errorf("%w: unsupported layer %T", ErrInvalidFrame, layer)
		}
	}

	if _, ok := f.layers[len(f.layers)-1].(*PayloadLayer); !ok {
		return fmt.Errorf("%w: missing payload layer", ErrInvalidFrame)
	}

	// a frame occupies at least one byte
	if len(f.layers) == 1 {
		return fmt.Errorf("%w: payload needs at least one enclosing layer", ErrInvalidFrame)
	}

	return nil
}

// Registry returns the message registry used to decode payloads.
func (f *Frame) Registry() *message.Registry { return f.registry }

// Metrics returns the counters of the frame.
func (f *Frame) Metrics() *Metrics { return f.metrics }

// String describes the layers, e.g. "sync(abcd) | size(u16) | id(u8) | payload".
func (f *Frame) String() string {
	names := make([]string, len(f.layers))
	for i, l := range f.layers {
		names[i] = l.String()
	}

	return strings.Join(names, " | ")
}

// Wrap frames an already encoded payload under the message ID id.
func (f *Frame) Wrap(id uint64, payload []byte) ([]byte, error) {
	return f.write(nil, &writeState{id: id, payload: payload})
}

// WriteMessage appends the framed encoding of msg to dst.
func (f *Frame) WriteMessage(dst []byte, msg message.Message) ([]byte, error) {
	if msg == nil {
		return dst, errors.New("frame: nil message")
	}

	return f.write(dst, &writeState{id: msg.ID(), msg: msg})
}

// Encode returns the framed encoding of msg.
func (f *Frame) Encode(msg message.Message) ([]byte, error) {
	return f.WriteMessage(nil, msg)
}

func (f *Frame) write(dst []byte, st *writeState) ([]byte, error) {
	if !f.hasID && st.id != f.defaultID {
		return dst, fmt.Errorf("%w: frame without id layer only carries id %d, got %d", ErrInvalidID, f.defaultID, st.id)
	}

	start := len(dst)
	out, err := f.writeFrom(0, dst, st)
	if err != nil {
		return out[:start], err
	}
	f.metrics.incEncodeCount()

	return out, nil
}

func (f *Frame) writeFrom(i int, dst []byte, st *writeState) ([]byte, error) {
	return f.layers[i].write(f, i+1, dst, st)
}

func (f *Frame) readFrom(i int, buf []byte, st *readState) (int, error) {
	return f.layers[i].read(f, i+1, buf, st)
}

// Unwrap decodes the first frame of buf.
//
// It returns the message and the number of bytes consumed. It never consumes more
// than len(buf) bytes, and consumes nothing only when the error is ErrNeedMoreData.
//
//   - ErrNeedMoreData: buf is a strict prefix of a frame.
//   - ErrSyncLost: buf does not start with the sync marker; consumed covers the bytes
//     up to the next possible marker. An incomplete frame followed by a complete one
//     is dropped the same way, up to the complete frame.
//   - ErrChecksumMismatch, ErrInvalidSize, ErrInvalidID: consumed is 1 when the frame
//     has a sync layer, otherwise the whole frame.
//   - message decode errors: the frame is well formed and consumed entirely; the
//     error wraps the field error.
//
// Unregistered IDs decode to *message.Raw.
func (f *Frame) Unwrap(buf []byte) (message.Message, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrNeedMoreData
	}

	st := readState{id: f.defaultID}
	n, err := f.readFrom(0, buf, &st)
	if err != nil {
		consumed, err := f.discard(buf, n, err)
		return nil, consumed, err
	}

	var msg message.Message
	if st.bounded {
		msg = f.registry.NewOrRaw(st.id)
		used, decodeErr := msg.Decode(st.payload)
		if decodeErr != nil {
			f.metrics.incDecodeErrCount()
			return nil, n, decodeErr
		}
		if used < len(st.payload) {
			f.logger.Debug("trailing payload bytes ignored",
				"id", st.id, "message", msg.Name(), "trailing", len(st.payload)-used)
		}
	} else {
		if st.decodeErr != nil {
			f.metrics.incDecodeErrCount()
			return nil, n, st.decodeErr
		}
		msg = st.msg
	}

	if _, ok := msg.(*message.Raw); ok {
		f.metrics.incRawCount()
	}
	f.metrics.incFrameCount()

	return msg, n, nil
}

// discard maps a layer error to the Unwrap error and consumed count.
func (f *Frame) discard(buf []byte, n int, err error) (int, error) {
	switch {
	case errors.Is(err, ErrNeedMoreData):
		if skipped := f.nextCompleteFrame(buf); skipped > 0 {
			f.metrics.addSyncLoss(skipped)
			return skipped, fmt.Errorf("%w: skipped %d bytes of an incomplete frame", ErrSyncLost, skipped)
		}

		return 0, ErrNeedMoreData

	case errors.Is(err, errSyncMismatch):
		skipped := f.sync.skip(buf)
		f.metrics.addSyncLoss(skipped)

		return skipped, fmt.Errorf("%w: skipped %d bytes", ErrSyncLost, skipped)
	}

	switch {
	case errors.Is(err, ErrChecksumMismatch):
		f.metrics.incChecksumErrCount()
	case errors.Is(err, ErrInvalidSize), errors.Is(err, ErrInvalidID):
		f.metrics.incSizeErrCount()
	}

	switch {
	case f.sync != nil:
		// rescan from the next byte for a marker
		return 1, err
	case n > 0 && n <= len(buf):
		return n, err
	default:
		return len(buf), err
	}
}

// nextCompleteFrame returns the offset of the first later sync marker in buf that
// starts a complete, well formed frame, or 0 when there is none.
func (f *Frame) nextCompleteFrame(buf []byte) int {
	if f.sync == nil {
		return 0
	}

	pattern := f.sync.pattern
	for off := 1; off+len(pattern) <= len(buf); {
		idx := bytes.Index(buf[off:], pattern)
		if idx < 0 {
			return 0
		}
		off += idx

		st := readState{id: f.defaultID}
		if _, err := f.readFrom(0, buf[off:], &st); err == nil {
			return off
		}
		off++
	}

	return 0
}

// ProcessInputData decodes every complete frame of buf and dispatches each message to d.
//
// It returns the number of bytes consumed; the remaining bytes are a strict prefix
// of a frame. The returned error joins the errors of every bad frame and dispatch.
func (f *Frame) ProcessInputData(buf []byte, d Dispatcher) (int, error) {
	var (
		consumed int
		errs     []error
	)

	for consumed < len(buf) {
		msg, n, err := f.Unwrap(buf[consumed:])
		if errors.Is(err, ErrNeedMoreData) {
			break
		}
		consumed += n

		if err != nil {
			f.logger.Debug("frame dropped", "error", err, "consumed", n)
			errs = append(errs, err)

			continue
		}

		if d != nil {
			if err := d.Dispatch(msg); err != nil {
				errs = append(errs, fmt.Errorf("dispatch %s: %w", msg.Name(), err))
			}
		}
	}

	return consumed, errors.Join(errs...)
}
