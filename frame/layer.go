package frame

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/internal/wire"
	"github.com/arloliu/go-comms/message"
)

// Layer is one element of a frame definition. Every layer except Payload wraps
// the layers that follow it.
type Layer interface {
	// String describes the layer, e.g. "size(u16)".
	String() string

	// minLength returns the smallest number of bytes the layer itself occupies.
	minLength() int

	// write appends the layer and its inner layers to dst.
	write(f *Frame, next int, dst []byte, st *writeState) ([]byte, error)

	// read parses the layer and its inner layers from buf.
	//
	// It returns the frame bytes covered by the layer when known, even on error.
	read(f *Frame, next int, buf []byte, st *readState) (int, error)
}

type writeState struct {
	id      uint64
	msg     message.Message
	payload []byte
}

type readState struct {
	id      uint64
	bounded bool
	payload []byte // set when bounded

	// unbounded frames decode the message in place
	msg       message.Message
	decodeErr error
}

// SyncLayer is a fixed marker that starts every frame.
type SyncLayer struct {
	pattern []byte
}

// Sync creates a sync layer matching pattern.
func Sync(pattern ...byte) *SyncLayer {
	return &SyncLayer{pattern: bytes.Clone(pattern)}
}

// Pattern returns the sync marker.
func (l *SyncLayer) Pattern() []byte { return l.pattern }

func (l *SyncLayer) String() string { return "sync(" + hex.EncodeToString(l.pattern) + ")" }

func (l *SyncLayer) minLength() int { return len(l.pattern) }

func (l *SyncLayer) write(f *Frame, next int, dst []byte, st *writeState) ([]byte, error) {
	return f.writeFrom(next, append(dst, l.pattern...), st)
}

func (l *SyncLayer) read(f *Frame, next int, buf []byte, st *readState) (int, error) {
	p := l.pattern
	if len(buf) < len(p) {
		if bytes.HasPrefix(p, buf) {
			return 0, ErrNeedMoreData
		}
		return 0, errSyncMismatch
	}
	if !bytes.Equal(buf[:len(p)], p) {
		return 0, errSyncMismatch
	}

	n, err := f.readFrom(next, buf[len(p):], st)
	if n > 0 || err == nil {
		n += len(p)
	}

	return n, err
}

// skip returns the number of bytes to drop from buf so that it starts at the next
// possible occurrence of the pattern, counting a partial match at the end of buf.
func (l *SyncLayer) skip(buf []byte) int {
	if len(buf) <= 1 {
		return len(buf)
	}
	if idx := bytes.Index(buf[1:], l.pattern); idx >= 0 {
		return idx + 1
	}
	for i := max(1, len(buf)-len(l.pattern)+1); i < len(buf); i++ {
		if bytes.HasPrefix(l.pattern, buf[i:]) {
			return i
		}
	}

	return len(buf)
}

// SizeLayer stores the number of bytes of the inner layers.
type SizeLayer struct {
	width    int
	endian   field.Endian
	offset   int64
	max      int64
	minInner int // computed by New
}

// Size creates a size layer of width bytes (1, 2 or 4) in big endian order.
func Size(width int) *SizeLayer {
	return &SizeLayer{width: width}
}

// WithEndian sets the byte order of the size field.
func (l *SizeLayer) WithEndian(e field.Endian) *SizeLayer {
	l.endian = e
	return l
}

// WithOffset sets a constant added to the inner length on the wire: wire = inner + offset.
// E.g. an offset equal to the width makes the size include the size field itself.
func (l *SizeLayer) WithOffset(offset int64) *SizeLayer {
	l.offset = offset
	return l
}

// WithMax caps the inner length. Larger sizes are rejected with ErrInvalidSize,
// which bounds the memory a corrupted size field can make a stream wait for.
func (l *SizeLayer) WithMax(maxSize int64) *SizeLayer {
	l.max = maxSize
	return l
}

func (l *SizeLayer) String() string { return fmt.Sprintf("size(u%d)", 8*l.width) }

func (l *SizeLayer) minLength() int { return l.width }

func (l *SizeLayer) validate() error {
	switch l.width {
	case 1, 2, 4:
	default:
		return fmt.Errorf("%w: size width %d not in {1, 2, 4}", ErrInvalidFrame, l.width)
	}
	if l.endian != field.BigEndian && l.endian != field.LittleEndian {
		return fmt.Errorf("%w: unknown endian %d", ErrInvalidFrame, l.endian)
	}

	wireMax := int64(1)<<(8*l.width) - 1
	limit := wireMax - l.offset
	if limit < 0 {
		return fmt.Errorf("%w: size offset %d exceeds the %d byte width", ErrInvalidFrame, l.offset, l.width)
	}
	if l.max <= 0 || l.max > limit {
		l.max = limit
	}

	return nil
}

func (l *SizeLayer) write(f *Frame, next int, dst []byte, st *writeState) ([]byte, error) {
	start := len(dst)
	dst = wire.AppendUint(dst, 0, l.width, l.endian)

	dst, err := f.writeFrom(next, dst, st)
	if err != nil {
		return dst, err
	}

	inner := int64(len(dst) - start - l.width)
	if inner > l.max {
		return dst, fmt.Errorf("%w: inner length %d exceeds maximum %d", ErrInvalidSize, inner, l.max)
	}

	v := uint64(inner + l.offset) //nolint:gosec
	wire.AppendUint(dst[start:start], v, l.width, l.endian)

	return dst, nil
}

func (l *SizeLayer) read(f *Frame, next int, buf []byte, st *readState) (int, error) {
	if len(buf) < l.width {
		return 0, ErrNeedMoreData
	}

	v := int64(wire.Uint(buf[:l.width], l.endian)) //nolint:gosec
	inner := v - l.offset
	switch {
	case inner < 0:
		return 0, fmt.Errorf("%w: wire size %d below offset %d", ErrInvalidSize, v, l.offset)
	case inner > l.max:
		return 0, fmt.Errorf("%w: size %d exceeds maximum %d", ErrInvalidSize, inner, l.max)
	case inner < int64(l.minInner):
		return 0, fmt.Errorf("%w: size %d below the minimum of %d", ErrInvalidSize, inner, l.minInner)
	}

	total := l.width + int(inner)
	if len(buf) < total {
		return 0, ErrNeedMoreData
	}

	st.bounded = true
	_, err := f.readFrom(next, buf[l.width:total], st)
	if errors.Is(err, ErrNeedMoreData) {
		return total, fmt.Errorf("%w: inner layers exceed size %d", ErrInvalidSize, inner)
	}

	return total, err
}

// IDLayer stores the numeric message ID.
type IDLayer struct {
	width  int // 0 for varint
	endian field.Endian
}

// ID creates a fixed width ID layer of width bytes (1 to 8) in big endian order.
func ID(width int) *IDLayer {
	return &IDLayer{width: width}
}

// VarintID creates an ID layer storing the ID as an unsigned base-128 varint.
func VarintID() *IDLayer {
	return &IDLayer{}
}

// WithEndian sets the byte order of a fixed width ID.
func (l *IDLayer) WithEndian(e field.Endian) *IDLayer {
	l.endian = e
	return l
}

func (l *IDLayer) String() string {
	if l.width == 0 {
		return "id(varint)"
	}

	return fmt.Sprintf("id(u%d)", 8*l.width)
}

func (l *IDLayer) minLength() int {
	if l.width == 0 {
		return 1
	}

	return l.width
}

func (l *IDLayer) validate() error {
	if l.width < 0 || l.width > 8 {
		return fmt.Errorf("%w: id width %d not in [1, 8]", ErrInvalidFrame, l.width)
	}
	if l.endian != field.BigEndian && l.endian != field.LittleEndian {
		return fmt.Errorf("%w: unknown endian %d", ErrInvalidFrame, l.endian)
	}

	return nil
}

func (l *IDLayer) maxID() uint64 {
	if l.width == 0 || l.width == 8 {
		return math.MaxUint64
	}

	return 1<<(8*l.width) - 1
}

func (l *IDLayer) write(f *Frame, next int, dst []byte, st *writeState) ([]byte, error) {
	if st.id > l.maxID() {
		return dst, fmt.Errorf("%w: %d does not fit %s", ErrInvalidID, st.id, l)
	}

	if l.width == 0 {
		dst = binary.AppendUvarint(dst, st.id)
	} else {
		dst = wire.AppendUint(dst, st.id, l.width, l.endian)
	}

	return f.writeFrom(next, dst, st)
}

func (l *IDLayer) read(f *Frame, next int, buf []byte, st *readState) (int, error) {
	var n int
	if l.width == 0 {
		id, size := binary.Uvarint(buf)
		switch {
		case size == 0:
			return 0, ErrNeedMoreData
		case size < 0:
			return 0, fmt.Errorf("%w: varint overflows 64 bits", ErrInvalidID)
		}
		st.id, n = id, size
	} else {
		if len(buf) < l.width {
			return 0, ErrNeedMoreData
		}
		st.id, n = wire.Uint(buf[:l.width], l.endian), l.width
	}

	inner, err := f.readFrom(next, buf[n:], st)
	if inner > 0 || err == nil {
		inner += n
	}

	return inner, err
}

// PayloadLayer carries the message payload. It must be the innermost layer.
type PayloadLayer struct{}

// Payload creates the payload layer.
func Payload() *PayloadLayer { return &PayloadLayer{} }

func (l *PayloadLayer) String() string { return "payload" }

func (l *PayloadLayer) minLength() int { return 0 }

func (l *PayloadLayer) write(_ *Frame, _ int, dst []byte, st *writeState) ([]byte, error) {
	if st.msg != nil {
		return st.msg.AppendTo(dst), nil
	}

	return append(dst, st.payload...), nil
}

func (l *PayloadLayer) read(f *Frame, _ int, buf []byte, st *readState) (int, error) {
	if st.bounded {
		st.payload = buf
		return len(buf), nil
	}

	// Without a size layer the message schema delimits the payload, so the ID must be known.
	msg, err := f.registry.New(st.id)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	n, err := msg.Decode(buf)
	if errors.Is(err, field.ErrTruncated) {
		return 0, ErrNeedMoreData
	}
	st.msg, st.decodeErr = msg, err

	return n, nil
}

// ChecksumLayer stores a checksum over the inner layers as a suffix.
type ChecksumLayer struct {
	alg    Algorithm
	endian field.Endian
}

// Checksum creates a checksum layer stored in big endian order.
func Checksum(alg Algorithm) *ChecksumLayer {
	return &ChecksumLayer{alg: alg}
}

// WithEndian sets the byte order of the stored checksum.
func (l *ChecksumLayer) WithEndian(e field.Endian) *ChecksumLayer {
	l.endian = e
	return l
}

// Algorithm returns the checksum algorithm.
func (l *ChecksumLayer) Algorithm() Algorithm { return l.alg }

func (l *ChecksumLayer) String() string { return "checksum(" + l.alg.String() + ")" }

func (l *ChecksumLayer) minLength() int { return l.alg.Width() }

func (l *ChecksumLayer) validate() error {
	if l.alg.Width() == 0 {
		return fmt.Errorf("%w: unknown checksum algorithm %d", ErrInvalidFrame, l.alg)
	}
	if l.endian != field.BigEndian && l.endian != field.LittleEndian {
		return fmt.Errorf("%w: unknown endian %d", ErrInvalidFrame, l.endian)
	}

	return nil
}

func (l *ChecksumLayer) write(f *Frame, next int, dst []byte, st *writeState) ([]byte, error) {
	start := len(dst)
	dst, err := f.writeFrom(next, dst, st)
	if err != nil {
		return dst, err
	}

	return wire.AppendUint(dst, l.alg.Compute(dst[start:]), l.alg.Width(), l.endian), nil
}

func (l *ChecksumLayer) read(f *Frame, next int, buf []byte, st *readState) (int, error) {
	w := l.alg.Width()

	var (
		n   int
		err error
	)
	if st.bounded {
		if len(buf) < w {
			return 0, ErrNeedMoreData
		}
		n, err = f.readFrom(next, buf[:len(buf)-w], st)
	} else {
		n, err = f.readFrom(next, buf, st)
	}
	if err != nil {
		return n, err
	}

	if len(buf) < n+w {
		return 0, ErrNeedMoreData
	}

	stored := wire.Uint(buf[n:n+w], l.endian)
	if computed := l.alg.Compute(buf[:n]); stored != computed {
		return n + w, fmt.Errorf("%w: %s wire=0x%0*X, computed=0x%0*X", ErrChecksumMismatch, l.alg, 2*w, stored, 2*w, computed)
	}

	return n + w, nil
}
