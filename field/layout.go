package field

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/go-comms/internal/wire"
)

// IntType is the wire representation of an integer-based field.
type IntType uint8

const (
	Int8 IntType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Intvar  // zig-zag base-128 varint, at most 10 bytes
	Uintvar // base-128 varint, at most 10 bytes
)

func (t IntType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Intvar:
		return "intvar"
	case Uintvar:
		return "uintvar"
	default:
		return fmt.Sprintf("inttype(%d)", uint8(t))
	}
}

// IsSigned reports whether t is a two's complement type.
func (t IntType) IsSigned() bool {
	switch t {
	case Int8, Int16, Int32, Int64, Intvar:
		return true
	default:
		return false
	}
}

// IsVarint reports whether t uses a variable length encoding.
func (t IntType) IsVarint() bool {
	return t == Intvar || t == Uintvar
}

// Width returns the default byte width of t, or 0 for varints.
func (t IntType) Width() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32:
		return 4
	case Int64, Uint64:
		return 8
	default:
		return 0
	}
}

// intLayout describes the wire encoding of an integer shared by Int, Enum and Bitmask fields.
//
// Values are carried as uint64 bit patterns. For signed layouts the pattern is the two's
// complement int64; for unsigned layouts it is the plain unsigned value.
type intLayout struct {
	typ     IntType
	width   int // 0 for varints
	signed  bool
	endian  Endian
	minWire int64  // signed layouts only
	maxWire uint64 // inclusive upper bound, as int64 for signed layouts
}

func newIntLayout(typ IntType, length int, endian Endian) (intLayout, error) {
	if typ < Int8 || typ > Uintvar {
		return intLayout{}, fmt.Errorf("%w: unknown int type %d", ErrInvalidSchema, typ)
	}
	if endian != BigEndian && endian != LittleEndian {
		return intLayout{}, fmt.Errorf("%w: unknown endian %d", ErrInvalidSchema, endian)
	}

	l := intLayout{typ: typ, signed: typ.IsSigned(), endian: endian}

	if typ.IsVarint() {
		if length != 0 {
			return intLayout{}, fmt.Errorf("%w: length is not applicable to %s", ErrInvalidSchema, typ)
		}
		if l.signed {
			l.minWire, l.maxWire = math.MinInt64, math.MaxInt64
		} else {
			l.maxWire = math.MaxUint64
		}

		return l, nil
	}

	l.width = typ.Width()
	if length != 0 {
		if length < 1 || length > l.width {
			return intLayout{}, fmt.Errorf("%w: length %d is not in range [1, %d] for %s", ErrInvalidSchema, length, l.width, typ)
		}
		l.width = length
	}

	bits := uint(8 * l.width) //nolint:gosec
	switch {
	case l.signed && bits == 64:
		l.minWire, l.maxWire = math.MinInt64, math.MaxInt64
	case l.signed:
		l.minWire = -(1 << (bits - 1))
		l.maxWire = 1<<(bits-1) - 1
	case bits == 64:
		l.maxWire = math.MaxUint64
	default:
		l.maxWire = 1<<bits - 1
	}

	return l, nil
}

// fitsSigned reports whether v can be represented in a signed layout.
func (l intLayout) fitsSigned(v int64) bool {
	return v >= l.minWire && v <= int64(l.maxWire) //nolint:gosec
}

// fits reports whether the bit pattern v is representable.
func (l intLayout) fits(v uint64) bool {
	if l.signed {
		return l.fitsSigned(int64(v)) //nolint:gosec
	}

	return v <= l.maxWire
}

func (l intLayout) length(v uint64) int {
	switch l.typ {
	case Uintvar:
		return wire.UvarintLen(v)
	case Intvar:
		return wire.VarintLen(int64(v)) //nolint:gosec
	default:
		return l.width
	}
}

func (l intLayout) appendTo(dst []byte, v uint64) []byte {
	switch l.typ {
	case Uintvar:
		return binary.AppendUvarint(dst, v)
	case Intvar:
		return binary.AppendVarint(dst, int64(v)) //nolint:gosec
	default:
		return wire.AppendUint(dst, v, l.width, l.endian)
	}
}

// decode reads a value and returns its bit pattern and the consumed length.
func (l intLayout) decode(data []byte) (uint64, int, error) {
	r := wire.NewReader(data)

	switch l.typ {
	case Uintvar:
		v, err := r.ReadUvarint()
		return v, r.Pos(), varintErr(err)
	case Intvar:
		v, err := r.ReadVarint()
		return uint64(v), r.Pos(), varintErr(err) //nolint:gosec
	}

	v, err := r.ReadUint(l.width, l.endian)
	if err != nil {
		return 0, 0, err
	}
	if l.signed {
		return uint64(wire.SignExtend(v, l.width)), l.width, nil //nolint:gosec
	}

	return v, l.width, nil
}

// varintErr reports an overlong varint as an invalid value.
func varintErr(err error) error {
	if errors.Is(err, wire.ErrOverflow) {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	return err
}

func (l intLayout) maxLength() int {
	if l.typ.IsVarint() {
		return wire.MaxVarintLen
	}

	return l.width
}

// float converts the bit pattern v to float64 according to the layout signedness.
func (l intLayout) float(v uint64) float64 {
	if l.signed {
		return float64(int64(v)) //nolint:gosec
	}

	return float64(v)
}

func (l intLayout) format(v uint64) string {
	if l.signed {
		return fmt.Sprintf("%d", int64(v)) //nolint:gosec
	}

	return fmt.Sprintf("%d", v)
}
