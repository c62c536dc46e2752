package field

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/go-comms/units"
)

// Range is an inclusive range of raw values.
type Range struct {
	Min int64
	Max int64
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// Special is a named raw value with a protocol specific meaning, e.g. "unknown" = -1.
type Special struct {
	Name  string
	Value int64
}

// IntSchema declares an integer field, optionally scaled and carrying physical units.
//
// The value chain of a scaled integer is:
//
//	raw (wire integer) --Scaling--> scaled value in Units --unit conversion--> value in DomainUnits
//
// Both steps are fixed at definition time and composed into one exact ratio.
type IntSchema struct {
	Name string

	// Type is the wire type.
	Type IntType

	// Length overrides the byte width of fixed width types (1 up to the type width).
	Length int

	// Endian is the byte order of fixed width types. The default is big endian.
	Endian Endian

	// SerOffset is added to the raw value when serializing: wire = raw + SerOffset.
	// It is supported for fixed width types up to 4 bytes.
	SerOffset int64

	// Scaling converts raw values to scaled values: scaled = raw * Scaling.
	// The zero value means no scaling.
	Scaling units.Ratio

	// Units are the units of the scaled value.
	Units units.Units

	// DomainUnits are the units exposed by DomainValue. Defaults to Units.
	DomainUnits units.Units

	// Default is the raw value a new or reset field holds.
	Default int64

	// ValidRanges restricts the accepted raw values. An empty list accepts every
	// value representable by the wire type.
	ValidRanges []Range

	// Specials lists named raw values. Special values are always valid.
	Specials []Special
}

// IntDef is the compiled, immutable definition of an integer field.
type IntDef struct {
	schema  IntSchema
	layout  intLayout
	big     bool // raw values are unsigned 64-bit patterns
	rawMin  int64
	rawMax  int64
	scaling units.Ratio
	total   units.Ratio
}

// DefineInt compiles an integer field schema.
func DefineInt(schema IntSchema) (*IntDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}

	layout, err := newIntLayout(schema.Type, schema.Length, schema.Endian)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", schema.Name, err)
	}

	def := &IntDef{
		schema: schema,
		layout: layout,
		big:    !layout.signed && layout.maxWire > math.MaxInt64,
	}
	def.schema.ValidRanges = append([]Range(nil), schema.ValidRanges...)
	def.schema.Specials = append([]Special(nil), schema.Specials...)

	if schema.SerOffset != 0 && (layout.width == 0 || layout.width > 4) {
		return nil, fmt.Errorf("%w: field %s: serialization offset requires a fixed width of at most 4 bytes", ErrInvalidSchema, schema.Name)
	}

	switch {
	case def.big:
		def.rawMin, def.rawMax = 0, math.MaxInt64
	case layout.signed:
		def.rawMin = layout.minWire - schema.SerOffset
		def.rawMax = int64(layout.maxWire) - schema.SerOffset //nolint:gosec
	default:
		def.rawMin = -schema.SerOffset
		def.rawMax = int64(layout.maxWire) - schema.SerOffset //nolint:gosec
	}

	def.scaling = schema.Scaling.Normalize()
	if def.scaling.Num == 0 || def.scaling.Den == 0 {
		return nil, fmt.Errorf("%w: field %s: invalid scaling %s", ErrInvalidSchema, schema.Name, def.scaling)
	}
	def.scaling = def.scaling.Reduce()

	if !schema.Units.IsValid() || !schema.DomainUnits.IsValid() {
		return nil, fmt.Errorf("%w: field %s: unknown units", ErrInvalidSchema, schema.Name)
	}
	if schema.DomainUnits == units.None {
		def.schema.DomainUnits = schema.Units
	}

	factor, err := units.Factor(def.schema.Units, def.schema.DomainUnits)
	if err != nil {
		return nil, fmt.Errorf("%w: field %s: %w", ErrInvalidSchema, schema.Name, err)
	}
	def.total = def.scaling.Mul(factor)

	if schema.Default < def.rawMin || schema.Default > def.rawMax {
		return nil, fmt.Errorf("%w: field %s: default value %d not in [%d, %d]",
			ErrInvalidSchema, schema.Name, schema.Default, def.rawMin, def.rawMax)
	}

	for _, r := range def.schema.ValidRanges {
		if r.Min > r.Max {
			return nil, fmt.Errorf("%w: field %s: invalid range [%d, %d]", ErrInvalidSchema, schema.Name, r.Min, r.Max)
		}
	}

	seen := make(map[string]struct{}, len(def.schema.Specials))
	for _, s := range def.schema.Specials {
		if _, ok := seen[s.Name]; ok || s.Name == "" {
			return nil, fmt.Errorf("%w: field %s: invalid or duplicate special %q", ErrInvalidSchema, schema.Name, s.Name)
		}
		seen[s.Name] = struct{}{}

		if s.Value < def.rawMin || s.Value > def.rawMax {
			return nil, fmt.Errorf("%w: field %s: special %s value %d out of range", ErrInvalidSchema, schema.Name, s.Name, s.Value)
		}
	}

	return def, nil
}

// MustDefineInt is like DefineInt but panics on an invalid schema.
// It is intended for package level definitions of generated bindings.
func MustDefineInt(schema IntSchema) *IntDef {
	def, err := DefineInt(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a field instance holding the default value.
func (d *IntDef) New() *Int {
	f := &Int{baseField: baseField{name: d.schema.Name}, def: d}
	f.Reset()

	return f
}

// NewField implements Definition.NewField().
func (d *IntDef) NewField() Field { return d.New() }

// Name returns the field name.
func (d *IntDef) Name() string { return d.schema.Name }

// Type returns the wire type.
func (d *IntDef) Type() IntType { return d.layout.typ }

// Scaling returns the raw to scaled ratio.
func (d *IntDef) Scaling() units.Ratio { return d.scaling }

// TotalRatio returns the composed raw to domain value ratio.
func (d *IntDef) TotalRatio() units.Ratio { return d.total }

// Units returns the units of the scaled value.
func (d *IntDef) Units() units.Units { return d.schema.Units }

// DomainUnits returns the units of the domain value.
func (d *IntDef) DomainUnits() units.Units { return d.schema.DomainUnits }

// MinValue returns the smallest raw value that fits the wire type.
func (d *IntDef) MinValue() int64 { return d.rawMin }

// MaxValue returns the largest raw value that fits the wire type.
//
// For unsigned 64-bit types the limit of the int64 accessors is returned; use
// Int.SetUint to reach the full range.
func (d *IntDef) MaxValue() int64 { return d.rawMax }

// Int is an integer field instance. When the schema declares scaling or units the
// field behaves as a scaled value: the raw integer is stored and every real
// valued view is derived from it on read.
type Int struct {
	baseField
	def *IntDef
	raw uint64 // int64 bit pattern, or unsigned value when def.big
}

var _ Field = (*Int)(nil)

// Def returns the field definition.
func (f *Int) Def() *IntDef { return f.def }

// Kind implements Field.Kind().
func (f *Int) Kind() Kind { return IntKind }

// Value returns the raw value.
func (f *Int) Value() int64 {
	return int64(f.raw) //nolint:gosec
}

// Uint returns the raw value as an unsigned integer.
// It is meant for unsigned 64-bit types whose values may exceed math.MaxInt64.
func (f *Int) Uint() uint64 {
	return f.raw
}

// SetValue sets the raw value.
//
// It returns an error wrapping ErrRange if v cannot be represented on the wire.
func (f *Int) SetValue(v int64) error {
	if v < f.def.rawMin || v > f.def.rawMax {
		return newError(f.name, fmt.Errorf("%w: %d not in [%d, %d]", ErrRange, v, f.def.rawMin, f.def.rawMax))
	}
	f.raw = uint64(v) //nolint:gosec

	return nil
}

// SetUint sets the raw value from an unsigned integer.
func (f *Int) SetUint(v uint64) error {
	if f.def.big {
		f.raw = v
		return nil
	}
	if v > math.MaxInt64 {
		return newError(f.name, fmt.Errorf("%w: %d exceeds %d", ErrRange, v, f.def.rawMax))
	}

	return f.SetValue(int64(v))
}

// Scaled returns the intermediate fixed-point view: raw * scaling.
func (f *Int) Scaled() float64 {
	return f.def.scaling.Apply(f.rawFloat())
}

// SetScaled sets the raw value to round(x / scaling).
func (f *Int) SetScaled(x float64) error {
	return f.setFromRatio(x, f.def.scaling)
}

// DomainValue returns raw * scaling converted to the domain units.
func (f *Int) DomainValue() float64 {
	return f.def.total.Apply(f.rawFloat())
}

// SetDomainValue sets the raw value to round(x / totalRatio).
//
// It returns an error wrapping ErrRange if the rounded result overflows the raw width.
// The field keeps its previous value on error.
func (f *Int) SetDomainValue(x float64) error {
	return f.setFromRatio(x, f.def.total)
}

// ValueIn returns the scaled value converted to u.
func (f *Int) ValueIn(u units.Units) (float64, error) {
	r, err := f.ratioTo(u)
	if err != nil {
		return 0, err
	}

	return r.Apply(f.rawFloat()), nil
}

// SetValueIn sets the field from a value expressed in u.
func (f *Int) SetValueIn(u units.Units, x float64) error {
	r, err := f.ratioTo(u)
	if err != nil {
		return err
	}

	return f.setFromRatio(x, r)
}

// IsSpecial reports whether the field currently holds the named special value.
func (f *Int) IsSpecial(name string) bool {
	for _, s := range f.def.schema.Specials {
		if s.Name == name {
			return !f.def.big && f.Value() == s.Value || f.def.big && s.Value >= 0 && f.raw == uint64(s.Value)
		}
	}

	return false
}

// SetSpecial sets the field to the named special value.
func (f *Int) SetSpecial(name string) error {
	for _, s := range f.def.schema.Specials {
		if s.Name == name {
			return f.SetValue(s.Value)
		}
	}

	return newError(f.name, fmt.Errorf("%w: unknown special %q", ErrInvalidValue, name))
}

// Specials returns the declared special values.
func (f *Int) Specials() []Special {
	return f.def.schema.Specials
}

// Length implements Field.Length().
func (f *Int) Length() int {
	return f.def.layout.length(f.wireValue())
}

// AppendTo implements Field.AppendTo().
func (f *Int) AppendTo(dst []byte) []byte {
	return f.def.layout.appendTo(dst, f.wireValue())
}

// Decode implements Field.Decode().
//
// A decoded value outside the valid ranges is stored and reported with ErrInvalidValue.
func (f *Int) Decode(data []byte) (int, error) {
	v, n, err := f.def.layout.decode(data)
	if err != nil {
		return n, newError(f.name, err)
	}

	switch {
	case f.def.big:
		f.raw = v
	default:
		f.raw = uint64(int64(v) - f.def.schema.SerOffset) //nolint:gosec
	}

	if !f.Valid() {
		return n, newError(f.name, fmt.Errorf("%w: %s", ErrInvalidValue, f.formatRaw()))
	}

	return n, nil
}

// Valid implements Field.Valid().
func (f *Int) Valid() bool {
	if f.def.big && f.raw > math.MaxInt64 {
		return len(f.def.schema.ValidRanges) == 0
	}

	v := f.Value()
	for _, s := range f.def.schema.Specials {
		if s.Value == v {
			return true
		}
	}

	if len(f.def.schema.ValidRanges) == 0 {
		return true
	}

	for _, r := range f.def.schema.ValidRanges {
		if r.Contains(v) {
			return true
		}
	}

	return false
}

// Reset implements Field.Reset().
func (f *Int) Reset() {
	f.raw = uint64(f.def.schema.Default) //nolint:gosec
}

// Clone implements Field.Clone().
func (f *Int) Clone() Field {
	return &Int{baseField: f.baseField, def: f.def, raw: f.raw}
}

// String implements Field.String().
func (f *Int) String() string {
	var sb strings.Builder
	sb.WriteString(f.name)
	sb.WriteByte('=')
	sb.WriteString(f.formatRaw())

	for _, s := range f.def.schema.Specials {
		if f.IsSpecial(s.Name) {
			sb.WriteString(" (")
			sb.WriteString(s.Name)
			sb.WriteByte(')')
			return sb.String()
		}
	}

	if !f.def.total.IsIdentity() || f.def.schema.DomainUnits != units.None {
		fmt.Fprintf(&sb, " (%g", f.DomainValue())
		if f.def.schema.DomainUnits != units.None {
			sb.WriteByte(' ')
			sb.WriteString(f.def.schema.DomainUnits.String())
		}
		sb.WriteByte(')')
	}

	return sb.String()
}

func (f *Int) formatRaw() string {
	if f.def.big {
		return fmt.Sprintf("%d", f.raw)
	}

	return fmt.Sprintf("%d", f.Value())
}

func (f *Int) rawFloat() float64 {
	if f.def.big {
		return float64(f.raw)
	}

	return float64(f.Value())
}

func (f *Int) wireValue() uint64 {
	if f.def.big {
		return f.raw
	}

	return uint64(f.Value() + f.def.schema.SerOffset) //nolint:gosec
}

func (f *Int) ratioTo(u units.Units) (units.Ratio, error) {
	factor, err := units.Factor(f.def.schema.Units, u)
	if err != nil {
		return units.Ratio{}, newError(f.name, err)
	}

	return f.def.scaling.Mul(factor), nil
}

// setFromRatio stores round(x / r) after checking that it fits the raw value range.
func (f *Int) setFromRatio(x float64, r units.Ratio) error {
	v := math.Round(r.Unapply(x))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return newError(f.name, fmt.Errorf("%w: %g is not a finite value", ErrRange, x))
	}

	// limits beyond 2^53 round to the next float64, so a value equal to the
	// rounded limit maps back to the limit itself
	if f.def.big {
		switch {
		case v < 0 || v > 1<<64:
			return newError(f.name, fmt.Errorf("%w: %g overflows %s", ErrRange, x, f.def.layout.typ))
		case v == 1<<64:
			f.raw = math.MaxUint64
		default:
			f.raw = uint64(v)
		}

		return nil
	}

	hi := float64(f.def.rawMax)
	switch {
	case v < float64(f.def.rawMin) || v > hi:
		return newError(f.name, fmt.Errorf("%w: %g overflows %s", ErrRange, x, f.def.layout.typ))
	case v == hi:
		f.raw = uint64(f.def.rawMax) //nolint:gosec
	default:
		f.raw = uint64(int64(v)) //nolint:gosec
	}

	return nil
}
