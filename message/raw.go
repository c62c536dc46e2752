package message

import (
	"fmt"

	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/internal/util"
)

// RawName is the name reported by Raw messages.
const RawName = "Raw"

// Raw is an untyped message carrying an ID without a registered schema and its payload.
type Raw struct {
	id      uint64
	payload []byte
}

var _ Message = (*Raw)(nil)

// NewRaw creates a raw message holding a copy of payload.
func NewRaw(id uint64, payload []byte) *Raw {
	return &Raw{id: id, payload: util.CloneSlice(payload, 0)}
}

// ID implements Message.ID().
func (m *Raw) ID() uint64 { return m.id }

// Name implements Message.Name().
func (m *Raw) Name() string { return RawName }

// Fields implements Message.Fields(). Raw messages have no fields.
func (m *Raw) Fields() []field.Field { return nil }

// Field implements Message.Field().
func (m *Raw) Field(string) field.Field { return nil }

// Payload returns the payload bytes. The returned slice must not be modified.
func (m *Raw) Payload() []byte { return m.payload }

// Length implements Message.Length().
func (m *Raw) Length() int { return len(m.payload) }

// Encode implements Message.Encode().
func (m *Raw) Encode() []byte { return util.CloneSlice(m.payload, 0) }

// AppendTo implements Message.AppendTo().
func (m *Raw) AppendTo(dst []byte) []byte { return append(dst, m.payload...) }

// Decode implements Message.Decode(). It consumes all of data.
func (m *Raw) Decode(data []byte) (int, error) {
	m.payload = util.CloneSlice(data, 0)
	return len(data), nil
}

// Valid implements Message.Valid().
func (m *Raw) Valid() bool { return true }

// Reset implements Message.Reset().
func (m *Raw) Reset() { m.payload = m.payload[:0] }

// String implements Message.String().
func (m *Raw) String() string {
	return fmt.Sprintf("%s(%d)%s", RawName, m.id, util.FormatHex(m.payload, 32))
}
