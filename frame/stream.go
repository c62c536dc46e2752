package frame

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-comms/message"
)

// Stream buffers the bytes of one logical byte stream and decodes the frames in it.
//
// A Stream is not safe for concurrent use: one goroutine feeds and reads it.
type Stream struct {
	frame *Frame
	buf   []byte
	off   int // start of the pending bytes in buf
}

// NewStream creates an empty stream decoding f.
func (f *Frame) NewStream() *Stream {
	return &Stream{frame: f}
}

// Frame returns the frame definition of the stream.
func (s *Stream) Frame() *Frame { return s.frame }

// Buffered returns the number of pending bytes.
func (s *Stream) Buffered() int { return len(s.buf) - s.off }

// Reset drops the pending bytes.
func (s *Stream) Reset() {
	s.buf = s.buf[:0]
	s.off = 0
}

// Feed appends data to the pending bytes.
//
// When the pending bytes exceed the frame's maximum buffer size the oldest bytes
// are dropped and counted as a sync loss; Feed returns the number dropped.
func (s *Stream) Feed(data []byte) int {
	s.compact()
	s.buf = append(s.buf, data...)

	over := s.Buffered() - s.frame.maxBuffered
	if over <= 0 {
		return 0
	}

	s.off += over
	s.frame.metrics.addDroppedBytes(over)
	s.frame.metrics.addSyncLoss(over)
	s.frame.logger.Warn("stream buffer overflow, oldest bytes dropped",
		"dropped", over, "max_buffered", s.frame.maxBuffered)

	return over
}

// Next decodes the next frame from the pending bytes.
//
// It returns ErrNeedMoreData when the pending bytes hold no complete frame. Any
// other error belongs to one bad frame whose bytes are already dropped, so the
// caller may call Next again.
func (s *Stream) Next() (message.Message, error) {
	pending := s.buf[s.off:]
	msg, n, err := s.frame.Unwrap(pending)
	s.off += n
	if s.off == len(s.buf) {
		s.Reset()
	}

	return msg, err
}

// Process feeds data and dispatches every complete frame to d.
//
// It returns the number of frames decoded and the joined errors of bad frames
// and dispatches.
func (s *Stream) Process(data []byte, d Dispatcher) (int, error) {
	s.Feed(data)

	var (
		count int
		errs  []error
	)
	for {
		msg, err := s.Next()
		if errors.Is(err, ErrNeedMoreData) {
			break
		}
		if err != nil {
			s.frame.logger.Debug("frame dropped", "error", err)
			errs = append(errs, err)

			continue
		}

		count++
		if d != nil {
			if err := d.Dispatch(msg); err != nil {
				errs = append(errs, fmt.Errorf("dispatch %s: %w", msg.Name(), err))
			}
		}
	}

	return count, errors.Join(errs...)
}

// compact moves the pending bytes to the front of the buffer once the consumed
// part dominates it.
func (s *Stream) compact() {
	if s.off == 0 {
		return
	}
	if s.off < len(s.buf)/2 && s.off < 4096 {
		return
	}

	n := copy(s.buf, s.buf[s.off:])
	s.buf = s.buf[:n]
	s.off = 0
}
