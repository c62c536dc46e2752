package field

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/go-comms/internal/wire"
)

// PrefixKind selects how the length of a string or data field is encoded.
type PrefixKind uint8

const (
	// PrefixFixed stores exactly Prefix.Size bytes, zero padded.
	PrefixFixed PrefixKind = iota + 1
	// PrefixU8 stores a 1-byte length before the content.
	PrefixU8
	// PrefixU16 stores a 2-byte length before the content.
	PrefixU16
	// PrefixU32 stores a 4-byte length before the content.
	PrefixU32
	// PrefixVarint stores a base-128 varint length before the content.
	PrefixVarint
	// PrefixZeroTerm terminates the content with a zero byte. Strings only.
	PrefixZeroTerm
)

func (k PrefixKind) String() string {
	switch k {
	case PrefixFixed:
		return "fixed"
	case PrefixU8:
		return "u8"
	case PrefixU16:
		return "u16"
	case PrefixU32:
		return "u32"
	case PrefixVarint:
		return "varint"
	case PrefixZeroTerm:
		return "zero-terminated"
	default:
		return fmt.Sprintf("prefix(%d)", uint8(k))
	}
}

// Prefix describes the length encoding of a string or data field.
type Prefix struct {
	Kind   PrefixKind
	Size   int    // content size of PrefixFixed
	Endian Endian // byte order of PrefixU16 and PrefixU32
}

// FixedLength returns a fixed size prefix of n bytes.
func FixedLength(n int) Prefix { return Prefix{Kind: PrefixFixed, Size: n} }

// LengthPrefix returns a length prefix of the given kind in big endian order.
func LengthPrefix(kind PrefixKind) Prefix { return Prefix{Kind: kind} }

func (p Prefix) validate(allowZeroTerm bool) error {
	switch p.Kind {
	case PrefixFixed:
		if p.Size <= 0 {
			return fmt.Errorf("%w: fixed length must be positive, got %d", ErrInvalidSchema, p.Size)
		}
	case PrefixU8, PrefixU16, PrefixU32, PrefixVarint:
	case PrefixZeroTerm:
		if !allowZeroTerm {
			return fmt.Errorf("%w: zero termination is not supported for data", ErrInvalidSchema)
		}
	default:
		return fmt.Errorf("%w: unknown prefix %d", ErrInvalidSchema, p.Kind)
	}

	if p.Endian != BigEndian && p.Endian != LittleEndian {
		return fmt.Errorf("%w: unknown endian %d", ErrInvalidSchema, p.Endian)
	}

	return nil
}

// maxContent returns the longest content length the prefix can express.
func (p Prefix) maxContent() int {
	switch p.Kind {
	case PrefixFixed:
		return p.Size
	case PrefixU8:
		return math.MaxUint8
	case PrefixU16:
		return math.MaxUint16
	default:
		return math.MaxInt32
	}
}

func (p Prefix) prefixWidth() int {
	switch p.Kind {
	case PrefixU8:
		return 1
	case PrefixU16:
		return 2
	case PrefixU32:
		return 4
	default:
		return 0
	}
}

// encodedLength returns the wire length of n content bytes.
func (p Prefix) encodedLength(n int) int {
	switch p.Kind {
	case PrefixFixed:
		return p.Size
	case PrefixVarint:
		return wire.UvarintLen(uint64(n)) + n //nolint:gosec
	case PrefixZeroTerm:
		return n + 1
	default:
		return p.prefixWidth() + n
	}
}

func (p Prefix) appendTo(dst, content []byte) []byte {
	switch p.Kind {
	case PrefixFixed:
		dst = append(dst, content...)
		for i := len(content); i < p.Size; i++ {
			dst = append(dst, 0)
		}
		return dst
	case PrefixVarint:
		dst = binary.AppendUvarint(dst, uint64(len(content)))
	case PrefixZeroTerm:
		return append(append(dst, content...), 0)
	default:
		dst = wire.AppendUint(dst, uint64(len(content)), p.prefixWidth(), p.Endian)
	}

	return append(dst, content...)
}

// decode returns the content at the start of data, aliasing data, and the consumed length.
func (p Prefix) decode(data []byte) ([]byte, int, error) {
	r := wire.NewReader(data)

	var n uint64
	switch p.Kind {
	case PrefixFixed:
		content, err := r.Read(p.Size)
		return content, r.Pos(), err
	case PrefixZeroTerm:
		idx := bytes.IndexByte(data, 0)
		if idx < 0 {
			return nil, 0, fmt.Errorf("%w: missing zero terminator", ErrTruncated)
		}
		return data[:idx], idx + 1, nil
	case PrefixVarint:
		v, err := r.ReadUvarint()
		if err != nil {
			return nil, 0, varintErr(err)
		}
		n = v
	default:
		v, err := r.ReadUint(p.prefixWidth(), p.Endian)
		if err != nil {
			return nil, 0, err
		}
		n = v
	}

	if n > uint64(r.Remaining()) { //nolint:gosec
		return nil, 0, fmt.Errorf("%w: length prefix %d exceeds remaining %d bytes", ErrTruncated, n, r.Remaining())
	}

	content, err := r.Read(int(n)) //nolint:gosec
	if err != nil {
		return nil, 0, err
	}

	return content, r.Pos(), nil
}
