package field

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// Bit is a named bit of a bitmask, identified by its index (0 = least significant).
type Bit struct {
	Name  string
	Index uint
}

// BitmaskSchema declares a bitmask field.
type BitmaskSchema struct {
	Name   string
	Type   IntType // unsigned fixed width type
	Length int
	Endian Endian

	Bits []Bit

	// Reserved marks bits that must be zero. The zero value reserves nothing.
	Reserved uint64

	// ReserveUndeclared additionally reserves every bit not listed in Bits.
	ReserveUndeclared bool

	Default uint64
}

// BitmaskDef is the compiled definition of a bitmask field.
type BitmaskDef struct {
	schema   BitmaskSchema
	layout   intLayout
	reserved uint64
	byName   map[string]uint
}

// DefineBitmask compiles a bitmask field schema.
func DefineBitmask(schema BitmaskSchema) (*BitmaskDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	if schema.Type.IsSigned() || schema.Type.IsVarint() {
		return nil, fmt.Errorf("%w: field %s: bitmask requires an unsigned fixed width type", ErrInvalidSchema, schema.Name)
	}

	layout, err := newIntLayout(schema.Type, schema.Length, schema.Endian)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", schema.Name, err)
	}

	def := &BitmaskDef{
		schema: schema,
		layout: layout,
		byName: make(map[string]uint, len(schema.Bits)),
	}
	def.schema.Bits = slices.Clone(schema.Bits)

	var declared uint64
	for _, b := range def.schema.Bits {
		if b.Name == "" || b.Index >= uint(8*layout.width) { //nolint:gosec
			return nil, fmt.Errorf("%w: field %s: invalid bit %q at index %d", ErrInvalidSchema, schema.Name, b.Name, b.Index)
		}
		if _, ok := def.byName[b.Name]; ok {
			return nil, fmt.Errorf("%w: field %s: duplicate bit %q", ErrInvalidSchema, schema.Name, b.Name)
		}
		def.byName[b.Name] = b.Index
		declared |= 1 << b.Index
	}

	def.reserved = schema.Reserved
	if schema.ReserveUndeclared {
		def.reserved |= layout.maxWire &^ declared
	}
	if def.reserved&declared != 0 {
		return nil, fmt.Errorf("%w: field %s: declared bits overlap the reserved mask", ErrInvalidSchema, schema.Name)
	}
	if !layout.fits(schema.Default) || schema.Default&def.reserved != 0 {
		return nil, fmt.Errorf("%w: field %s: invalid default 0x%x", ErrInvalidSchema, schema.Name, schema.Default)
	}

	return def, nil
}

// MustDefineBitmask is like DefineBitmask but panics on an invalid schema.
func MustDefineBitmask(schema BitmaskSchema) *BitmaskDef {
	def, err := DefineBitmask(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a field instance holding the default value.
func (d *BitmaskDef) New() *Bitmask {
	return &Bitmask{baseField: baseField{name: d.schema.Name}, def: d, value: d.schema.Default}
}

// NewField implements Definition.NewField().
func (d *BitmaskDef) NewField() Field { return d.New() }

// Reserved returns the effective reserved mask.
func (d *BitmaskDef) Reserved() uint64 { return d.reserved }

// Bitmask is a bitmask field instance.
type Bitmask struct {
	baseField
	def   *BitmaskDef
	value uint64
}

var _ Field = (*Bitmask)(nil)

// Kind implements Field.Kind().
func (f *Bitmask) Kind() Kind { return BitmaskKind }

// Value returns the raw mask.
func (f *Bitmask) Value() uint64 { return f.value }

// SetValue sets the raw mask.
//
// It returns an error wrapping ErrRange if v exceeds the width, or ErrInvalidValue
// if a reserved bit is set.
func (f *Bitmask) SetValue(v uint64) error {
	if !f.def.layout.fits(v) {
		return newError(f.name, fmt.Errorf("%w: 0x%x exceeds %d bytes", ErrRange, v, f.def.layout.width))
	}
	if v&f.def.reserved != 0 {
		return newError(f.name, fmt.Errorf("%w: reserved bits 0x%x set", ErrInvalidValue, v&f.def.reserved))
	}
	f.value = v

	return nil
}

// Bit reports whether the named bit is set. Unknown names report false.
func (f *Bitmask) Bit(name string) bool {
	idx, ok := f.def.byName[name]
	return ok && f.value&(1<<idx) != 0
}

// SetBit sets or clears the named bit.
func (f *Bitmask) SetBit(name string, set bool) error {
	idx, ok := f.def.byName[name]
	if !ok {
		return newError(f.name, fmt.Errorf("%w: unknown bit %q", ErrInvalidValue, name))
	}

	if set {
		f.value |= 1 << idx
	} else {
		f.value &^= 1 << idx
	}

	return nil
}

// Length implements Field.Length().
func (f *Bitmask) Length() int { return f.def.layout.width }

// AppendTo implements Field.AppendTo().
func (f *Bitmask) AppendTo(dst []byte) []byte {
	return f.def.layout.appendTo(dst, f.value)
}

// Decode implements Field.Decode().
func (f *Bitmask) Decode(data []byte) (int, error) {
	v, n, err := f.def.layout.decode(data)
	if err != nil {
		return n, newError(f.name, err)
	}
	f.value = v

	if !f.Valid() {
		return n, newError(f.name, fmt.Errorf("%w: reserved bits 0x%x set", ErrInvalidValue, v&f.def.reserved))
	}

	return n, nil
}

// Valid implements Field.Valid().
func (f *Bitmask) Valid() bool {
	return f.value&f.def.reserved == 0
}

// Reset implements Field.Reset().
func (f *Bitmask) Reset() { f.value = f.def.schema.Default }

// Clone implements Field.Clone().
func (f *Bitmask) Clone() Field {
	return &Bitmask{baseField: f.baseField, def: f.def, value: f.value}
}

// String implements Field.String().
func (f *Bitmask) String() string {
	var set []string
	for _, b := range f.def.schema.Bits {
		if f.value&(1<<b.Index) != 0 {
			set = append(set, b.Name)
		}
	}

	digits := (bits.Len64(f.def.layout.maxWire) + 3) / 4

	return fmt.Sprintf("%s=0x%0*x[%s]", f.name, digits, f.value, strings.Join(set, "|"))
}
