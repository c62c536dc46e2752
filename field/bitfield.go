package field

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strings"
)

// BitfieldMember is a named group of bits packed into a bitfield.
type BitfieldMember struct {
	Name   string
	Bits   uint
	Signed bool

	Default int64

	// ValidRange restricts the member value when set.
	ValidRange *Range
}

// BitfieldSchema declares a fixed width unsigned integer split into members.
//
// Members are packed from the least significant bit upwards, and their bit counts
// must add up to the integer width.
type BitfieldSchema struct {
	Name   string
	Type   IntType // unsigned fixed width type
	Length int
	Endian Endian

	Members []BitfieldMember
}

type bitfieldMember struct {
	BitfieldMember
	shift    uint
	mask     uint64 // unshifted
	min, max int64
}

func (m bitfieldMember) extract(v uint64) int64 {
	x := (v >> m.shift) & m.mask
	if m.Signed {
		s := 64 - m.Bits
		return int64(x<<s) >> s //nolint:gosec
	}

	return int64(x) //nolint:gosec
}

func (m bitfieldMember) valid(v int64) bool {
	return m.ValidRange == nil || m.ValidRange.Contains(v)
}

// BitfieldDef is the compiled definition of a bitfield.
type BitfieldDef struct {
	schema  BitfieldSchema
	layout  intLayout
	members []bitfieldMember
	byName  map[string]int
	initial uint64
}

// DefineBitfield compiles a bitfield schema.
func DefineBitfield(schema BitfieldSchema) (*BitfieldDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	if schema.Type.IsSigned() || schema.Type.IsVarint() {
		return nil, fmt.Errorf("%w: field %s: bitfield requires an unsigned fixed width type", ErrInvalidSchema, schema.Name)
	}

	layout, err := newIntLayout(schema.Type, schema.Length, schema.Endian)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", schema.Name, err)
	}

	def := &BitfieldDef{
		schema: schema,
		layout: layout,
		byName: make(map[string]int, len(schema.Members)),
	}
	def.schema.Members = slices.Clone(schema.Members)

	var shift uint
	for i, m := range def.schema.Members {
		if m.Name == "" || m.Bits == 0 || m.Bits > 64 {
			return nil, fmt.Errorf("%w: field %s: invalid member %q of %d bits", ErrInvalidSchema, schema.Name, m.Name, m.Bits)
		}
		if _, ok := def.byName[m.Name]; ok {
			return nil, fmt.Errorf("%w: field %s: duplicate member %q", ErrInvalidSchema, schema.Name, m.Name)
		}
		if r := m.ValidRange; r != nil {
			if r.Min > r.Max {
				return nil, fmt.Errorf("%w: field %s: member %s: invalid range [%d, %d]", ErrInvalidSchema, schema.Name, m.Name, r.Min, r.Max)
			}
			clone := *r
			m.ValidRange = &clone
			def.schema.Members[i].ValidRange = &clone
		}

		cm := bitfieldMember{BitfieldMember: m, shift: shift, mask: math.MaxUint64 >> (64 - m.Bits)}
		switch {
		case m.Signed:
			cm.min, cm.max = -1<<(m.Bits-1), 1<<(m.Bits-1)-1
		case m.Bits == 64:
			cm.max = math.MaxInt64
		default:
			cm.max = int64(cm.mask) //nolint:gosec
		}
		if m.Default < cm.min || m.Default > cm.max || !cm.valid(m.Default) {
			return nil, fmt.Errorf("%w: field %s: member %s: invalid default %d", ErrInvalidSchema, schema.Name, m.Name, m.Default)
		}

		def.byName[m.Name] = i
		def.members = append(def.members, cm)
		def.initial |= (uint64(m.Default) & cm.mask) << shift //nolint:gosec
		shift += m.Bits
	}

	if width := uint(8 * layout.width); shift != width { //nolint:gosec
		return nil, fmt.Errorf("%w: field %s: members cover %d bits of %d", ErrInvalidSchema, schema.Name, shift, width)
	}

	return def, nil
}

// MustDefineBitfield is like DefineBitfield but panics on an invalid schema.
func MustDefineBitfield(schema BitfieldSchema) *BitfieldDef {
	def, err := DefineBitfield(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a field instance holding the member defaults.
func (d *BitfieldDef) New() *Bitfield {
	return &Bitfield{baseField: baseField{name: d.schema.Name}, def: d, value: d.initial}
}

// NewField implements Definition.NewField().
func (d *BitfieldDef) NewField() Field { return d.New() }

// Members returns the declared members, least significant first.
func (d *BitfieldDef) Members() []BitfieldMember { return d.schema.Members }

// Bitfield is a bitfield instance.
type Bitfield struct {
	baseField
	def   *BitfieldDef
	value uint64
}

var _ Field = (*Bitfield)(nil)

// Kind implements Field.Kind().
func (f *Bitfield) Kind() Kind { return BitfieldKind }

// Value returns the packed integer.
func (f *Bitfield) Value() uint64 { return f.value }

// SetValue sets the packed integer.
//
// It returns an error wrapping ErrRange if v exceeds the width.
func (f *Bitfield) SetValue(v uint64) error {
	if !f.def.layout.fits(v) {
		return newError(f.name, fmt.Errorf("%w: 0x%x exceeds %d bytes", ErrRange, v, f.def.layout.width))
	}
	f.value = v

	return nil
}

// Member returns the value of the named member. Unknown names return 0.
func (f *Bitfield) Member(name string) int64 {
	i, ok := f.def.byName[name]
	if !ok {
		return 0
	}

	return f.def.members[i].extract(f.value)
}

// SetMember stores v into the named member.
//
// It returns an error wrapping ErrInvalidValue for an unknown member, or ErrRange if v
// does not fit the member bits.
func (f *Bitfield) SetMember(name string, v int64) error {
	i, ok := f.def.byName[name]
	if !ok {
		return newError(f.name, fmt.Errorf("%w: unknown member %q", ErrInvalidValue, name))
	}

	m := f.def.members[i]
	if v < m.min || v > m.max {
		return newError(f.name, fmt.Errorf("%w: member %s: %d not in [%d, %d]", ErrRange, name, v, m.min, m.max))
	}
	f.value = f.value&^(m.mask<<m.shift) | (uint64(v)&m.mask)<<m.shift //nolint:gosec

	return nil
}

// Length implements Field.Length().
func (f *Bitfield) Length() int { return f.def.layout.width }

// AppendTo implements Field.AppendTo().
func (f *Bitfield) AppendTo(dst []byte) []byte {
	return f.def.layout.appendTo(dst, f.value)
}

// Decode implements Field.Decode().
func (f *Bitfield) Decode(data []byte) (int, error) {
	v, n, err := f.def.layout.decode(data)
	if err != nil {
		return n, newError(f.name, err)
	}
	f.value = v

	if name, ok := f.invalidMember(); ok {
		return n, newError(f.name, fmt.Errorf("%w: member %s=%d outside valid range", ErrInvalidValue, name, f.Member(name)))
	}

	return n, nil
}

func (f *Bitfield) invalidMember() (string, bool) {
	for _, m := range f.def.members {
		if !m.valid(m.extract(f.value)) {
			return m.Name, true
		}
	}

	return "", false
}

// Valid implements Field.Valid().
func (f *Bitfield) Valid() bool {
	_, bad := f.invalidMember()
	return !bad
}

// Reset implements Field.Reset().
func (f *Bitfield) Reset() { f.value = f.def.initial }

// Clone implements Field.Clone().
func (f *Bitfield) Clone() Field {
	return &Bitfield{baseField: f.baseField, def: f.def, value: f.value}
}

// String implements Field.String().
func (f *Bitfield) String() string {
	parts := make([]string, len(f.def.members))
	for i, m := range f.def.members {
		parts[i] = fmt.Sprintf("%s=%d", m.Name, m.extract(f.value))
	}

	digits := (bits.Len64(f.def.layout.maxWire) + 3) / 4

	return fmt.Sprintf("%s=0x%0*x{%s}", f.name, digits, f.value, strings.Join(parts, ", "))
}
