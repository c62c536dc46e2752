package field

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-comms/internal/wire"
	"github.com/arloliu/go-comms/units"
)

var (
	// ErrRange indicates a value that does not fit the field's raw wire width.
	ErrRange = errors.New("value out of range")

	// ErrTruncated indicates that the input ended before the field was complete.
	ErrTruncated = wire.ErrTruncated

	// ErrInvalidValue indicates a decoded or assigned value outside the field's declared domain,
	// e.g. an undeclared enum value or reserved bits being set.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrUnits indicates a conversion between units of different kinds.
	ErrUnits = units.ErrIncompatible

	// ErrInvalidSchema indicates a field definition that cannot be compiled.
	ErrInvalidSchema = errors.New("invalid field schema")
)

// Endian selects the byte order of fixed width fields.
type Endian = wire.Endian

const (
	BigEndian    = wire.BigEndian
	LittleEndian = wire.LittleEndian
)

// Kind identifies the variant of a Field.
type Kind uint8

const (
	IntKind Kind = iota + 1
	EnumKind
	FloatKind
	BitmaskKind
	StringKind
	DataKind
	BitfieldKind
	BundleKind
	OptionalKind
)

func (k Kind) String() string {
	switch k {
	case IntKind:
		return "int"
	case EnumKind:
		return "enum"
	case FloatKind:
		return "float"
	case BitmaskKind:
		return "bitmask"
	case StringKind:
		return "string"
	case DataKind:
		return "data"
	case BitfieldKind:
		return "bitfield"
	case BundleKind:
		return "bundle"
	case OptionalKind:
		return "optional"
	default:
		return "unknown"
	}
}

// Field is one named, typed slot within a message.
//
// Field definitions are compiled once from a schema (see DefineInt and friends) and
// every message instance owns its own Field values created by the definition's New method.
// A Field is not safe for concurrent mutation.
type Field interface {
	// Name returns the schema name of the field.
	Name() string

	// Kind returns the field variant.
	Kind() Kind

	// Length returns the number of bytes the current value occupies on the wire.
	Length() int

	// AppendTo appends the wire encoding of the current value to dst.
	//
	// Encoding never fails: setters reject values that cannot be encoded.
	AppendTo(dst []byte) []byte

	// Decode reads the field from the start of data and returns the number of bytes consumed.
	//
	// It returns an error wrapping ErrTruncated if data is too short, or ErrInvalidValue
	// if the decoded value violates the declared domain.
	Decode(data []byte) (int, error)

	// Valid reports whether the current value is inside the declared domain.
	Valid() bool

	// Reset restores the schema default value.
	Reset()

	// Clone returns an independent copy of the field.
	Clone() Field

	// String returns a human readable representation for logging.
	String() string
}

// Definition is a compiled field schema.
//
// Every Def type of this package implements it, so composite fields such as Bundle
// and Optional can hold member definitions of any variant.
type Definition interface {
	// NewField creates a field instance holding the default value.
	NewField() Field
}

// An Error records a failed field operation.
type Error struct {
	Field string
	Err   error
}

func newError(name string, err error) error {
	return &Error{Field: name, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Equal reports whether a and b are the same kind and encode to the same bytes.
func Equal(a, b Field) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.Length() != b.Length() {
		return false
	}

	return string(a.AppendTo(nil)) == string(b.AppendTo(nil))
}

// baseField provides the parts of the Field interface shared by every variant.
type baseField struct {
	name string
}

func (f *baseField) Name() string {
	return f.name
}
