// Package wire contains the low-level byte cursor and integer codecs shared by
// the field and frame packages.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates that the input ended before a value was complete.
	ErrTruncated = errors.New("unexpected end of input")

	// ErrOverflow indicates a varint longer than 64 bits.
	ErrOverflow = errors.New("varint overflows 64 bits")
)

// Endian selects the byte order of fixed width integers.
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	if e == LittleEndian {
		return "little"
	}

	return "big"
}

// MaxVarintLen is the maximum encoded length of a 64-bit varint.
const MaxVarintLen = binary.MaxVarintLen64

// Reader is a cursor over an input byte slice.
//
// Reader never copies the input; slices returned by Read alias it.
type Reader struct {
	input []byte
	pos   int
}

// NewReader creates a cursor at the start of input.
func NewReader(input []byte) *Reader {
	return &Reader{input: input}
}

// Reset points the cursor at the start of input.
func (r *Reader) Reset(input []byte) {
	r.input = input
	r.pos = 0
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of bytes remaining in the input.
func (r *Reader) Remaining() int { return len(r.input) - r.pos }

// Rest returns the unread part of the input without consuming it.
func (r *Reader) Rest() []byte { return r.input[r.pos:] }

// Read reads length bytes and advances the cursor.
func (r *Reader) Read(length int) ([]byte, error) {
	if length < 0 || r.pos+length > len(r.input) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, length, r.Remaining())
	}
	result := r.input[r.pos : r.pos+length]
	r.pos += length

	return result, nil
}

// ReadByte reads a single byte and advances the cursor.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.input) {
		return 0, fmt.Errorf("%w: need 1 byte", ErrTruncated)
	}
	result := r.input[r.pos]
	r.pos++

	return result, nil
}

// ReadUint reads an unsigned integer of width bytes (1-8) in the given order.
func (r *Reader) ReadUint(width int, endian Endian) (uint64, error) {
	data, err := r.Read(width)
	if err != nil {
		return 0, err
	}

	return Uint(data, endian), nil
}

// ReadUvarint reads an unsigned base-128 varint.
func (r *Reader) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.input[r.pos:])
	switch {
	case n == 0:
		return 0, fmt.Errorf("%w: incomplete varint", ErrTruncated)
	case n < 0:
		return 0, ErrOverflow
	}
	r.pos += n

	return v, nil
}

// ReadVarint reads a zig-zag encoded signed varint.
func (r *Reader) ReadVarint() (int64, error) {
	v, n := binary.Varint(r.input[r.pos:])
	switch {
	case n == 0:
		return 0, fmt.Errorf("%w: incomplete varint", ErrTruncated)
	case n < 0:
		return 0, ErrOverflow
	}
	r.pos += n

	return v, nil
}

// Uint decodes len(data) bytes (1-8) as an unsigned integer.
func Uint(data []byte, endian Endian) uint64 {
	var v uint64
	if endian == LittleEndian {
		for i := len(data) - 1; i >= 0; i-- {
			v = v<<8 | uint64(data[i])
		}
		return v
	}

	for _, b := range data {
		v = v<<8 | uint64(b)
	}

	return v
}

// AppendUint appends the low width bytes of v in the given order.
func AppendUint(dst []byte, v uint64, width int, endian Endian) []byte {
	if endian == LittleEndian {
		for i := 0; i < width; i++ {
			dst = append(dst, byte(v>>(8*i)))
		}
		return dst
	}

	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*i)))
	}

	return dst
}

// UvarintLen returns the encoded length of v as an unsigned varint.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// VarintLen returns the encoded length of v as a zig-zag varint.
func VarintLen(v int64) int {
	ux := uint64(v) << 1 //nolint:gosec
	if v < 0 {
		ux = ^ux
	}

	return UvarintLen(ux)
}

// SignExtend interprets the low width bytes of v as a two's complement number.
func SignExtend(v uint64, width int) int64 {
	shift := 64 - 8*uint(width) //nolint:gosec
	return int64(v<<shift) >> shift //nolint:gosec
}
