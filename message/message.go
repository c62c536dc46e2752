package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/go-comms/field"
)

var (
	// ErrDuplicateID indicates that a message ID is already registered.
	ErrDuplicateID = errors.New("duplicate message id")

	// ErrDuplicateName indicates that a message name is already registered.
	ErrDuplicateName = errors.New("duplicate message name")

	// ErrUnknownID indicates that no message is registered for an ID.
	ErrUnknownID = errors.New("unknown message id")

	// ErrUnknownName indicates that no message is registered for a name.
	ErrUnknownName = errors.New("unknown message name")
)

// Message represents a schema-defined, ID-tagged record of fields.
//
// Implementations are usually generated types embedding Base.
type Message interface {
	// ID returns the numeric message ID.
	ID() uint64

	// Name returns the schema name of the message.
	Name() string

	// Fields returns the fields in wire order.
	Fields() []field.Field

	// Field returns the field with the given name, or nil.
	Field(name string) field.Field

	// Length returns the encoded payload length.
	Length() int

	// Encode returns the payload encoding of the message.
	Encode() []byte

	// AppendTo appends the payload encoding to dst.
	AppendTo(dst []byte) []byte

	// Decode reads every field from data and returns the number of bytes consumed.
	//
	// On error the returned count covers the fields read so far, and the error keeps
	// the field sentinel (field.ErrTruncated, field.ErrInvalidValue).
	Decode(data []byte) (int, error)

	// Valid reports whether every field holds a value inside its declared domain.
	Valid() bool

	// Reset restores every field default.
	Reset()

	// String returns a human readable representation for logging.
	String() string
}

// Base is the embeddable implementation of Message over an ordered field list.
type Base struct {
	id     uint64
	name   string
	fields []field.Field
	index  map[string]int
}

// NewBase creates a Base. The field order is the wire order.
//
// It panics on duplicate field names since that is a schema definition error.
func NewBase(id uint64, name string, fields ...field.Field) Base {
	b := Base{
		id:     id,
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}

	for i, f := range fields {
		if _, ok := b.index[f.Name()]; ok {
			panic(fmt.Sprintf("message %s: duplicate field %s", name, f.Name()))
		}
		b.index[f.Name()] = i
	}

	return b
}

// ID implements Message.ID().
func (b *Base) ID() uint64 { return b.id }

// Name implements Message.Name().
func (b *Base) Name() string { return b.name }

// Fields implements Message.Fields().
func (b *Base) Fields() []field.Field { return b.fields }

// Field implements Message.Field().
func (b *Base) Field(name string) field.Field {
	if i, ok := b.index[name]; ok {
		return b.fields[i]
	}

	return nil
}

// Length implements Message.Length().
func (b *Base) Length() int {
	n := 0
	for _, f := range b.fields {
		n += f.Length()
	}

	return n
}

// Encode implements Message.Encode().
func (b *Base) Encode() []byte {
	return b.AppendTo(make([]byte, 0, b.Length()))
}

// AppendTo implements Message.AppendTo().
func (b *Base) AppendTo(dst []byte) []byte {
	for _, f := range b.fields {
		dst = f.AppendTo(dst)
	}

	return dst
}

// Decode implements Message.Decode().
func (b *Base) Decode(data []byte) (int, error) {
	pos := 0
	for _, f := range b.fields {
		n, err := f.Decode(data[pos:])
		pos += n
		if err != nil {
			return pos, fmt.Errorf("message %s: %w", b.name, err)
		}
	}

	return pos, nil
}

// Valid implements Message.Valid().
func (b *Base) Valid() bool {
	for _, f := range b.fields {
		if !f.Valid() {
			return false
		}
	}

	return true
}

// Reset implements Message.Reset().
func (b *Base) Reset() {
	for _, f := range b.fields {
		f.Reset()
	}
}

// String implements Message.String().
func (b *Base) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(%d){", b.name, b.id)
	for i, f := range b.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.String())
	}
	sb.WriteByte('}')

	return sb.String()
}

// Equal reports whether a and b have the same ID and encoding.
func Equal(a, b Message) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.ID() == b.ID() && string(a.Encode()) == string(b.Encode())
}
