package field

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/go-comms/internal/wire"
	"github.com/arloliu/go-comms/units"
)

// FloatType is the wire representation of a floating point field.
type FloatType uint8

const (
	Float32 FloatType = iota + 1
	Float64
)

func (t FloatType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("floattype(%d)", uint8(t))
	}
}

// FloatSchema declares an IEEE 754 floating point field.
type FloatSchema struct {
	Name   string
	Type   FloatType
	Endian Endian

	// Units of the stored value, and the units exposed by DomainValue (defaults to Units).
	Units       units.Units
	DomainUnits units.Units

	Default float64

	// ValidRange restricts accepted values when set. NaN is never inside a range.
	ValidRange *FloatRange

	// Specials lists named values such as a NaN "null" or an infinite "overflow".
	// Special values are always valid.
	Specials []FloatSpecial
}

// FloatSpecial is a named float value. A NaN special matches every NaN.
type FloatSpecial struct {
	Name  string
	Value float64
}

func (s FloatSpecial) matches(v float64) bool {
	if math.IsNaN(s.Value) {
		return math.IsNaN(v)
	}

	return s.Value == v
}

// FloatRange is an inclusive range of float values.
type FloatRange struct {
	Min float64
	Max float64
}

// FloatDef is the compiled definition of a float field.
type FloatDef struct {
	schema FloatSchema
	width  int
	factor units.Ratio
}

// DefineFloat compiles a float field schema.
func DefineFloat(schema FloatSchema) (*FloatDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}

	def := &FloatDef{schema: schema}
	switch schema.Type {
	case Float32:
		def.width = 4
	case Float64:
		def.width = 8
	default:
		return nil, fmt.Errorf("%w: field %s: unknown float type %d", ErrInvalidSchema, schema.Name, schema.Type)
	}

	if schema.Endian != BigEndian && schema.Endian != LittleEndian {
		return nil, fmt.Errorf("%w: field %s: unknown endian %d", ErrInvalidSchema, schema.Name, schema.Endian)
	}
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
	def.factor = factor

	if r := schema.ValidRange; r != nil {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min > r.Max {
			return nil, fmt.Errorf("%w: field %s: invalid range [%g, %g]", ErrInvalidSchema, schema.Name, r.Min, r.Max)
		}
		clone := *r
		def.schema.ValidRange = &clone
	}

	def.schema.Specials = slices.Clone(schema.Specials)
	for i, sp := range def.schema.Specials {
		if sp.Name == "" {
			return nil, fmt.Errorf("%w: field %s: empty special name", ErrInvalidSchema, schema.Name)
		}
		if def.width == 4 {
			def.schema.Specials[i].Value = float64(float32(sp.Value))
		}
		for _, prev := range def.schema.Specials[:i] {
			if prev.Name == sp.Name {
				return nil, fmt.Errorf("%w: field %s: duplicate special %q", ErrInvalidSchema, schema.Name, sp.Name)
			}
		}
	}

	return def, nil
}

// MustDefineFloat is like DefineFloat but panics on an invalid schema.
func MustDefineFloat(schema FloatSchema) *FloatDef {
	def, err := DefineFloat(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a field instance holding the default value.
func (d *FloatDef) New() *Float {
	f := &Float{baseField: baseField{name: d.schema.Name}, def: d}
	f.Reset()

	return f
}

// NewField implements Definition.NewField().
func (d *FloatDef) NewField() Field { return d.New() }

// Float is a floating point field instance.
type Float struct {
	baseField
	def   *FloatDef
	value float64
}

var _ Field = (*Float)(nil)

// Kind implements Field.Kind().
func (f *Float) Kind() Kind { return FloatKind }

// Value returns the stored value in the field units.
func (f *Float) Value() float64 { return f.value }

// SetValue stores v, rounded to float32 precision for Float32 fields.
//
// Finite values overflowing float32 return an error wrapping ErrRange.
func (f *Float) SetValue(v float64) error {
	if f.def.width == 4 && !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
		return newError(f.name, fmt.Errorf("%w: %g overflows float32", ErrRange, v))
	}

	if f.def.width == 4 {
		v = float64(float32(v))
	}
	f.value = v

	return nil
}

// DomainValue returns the value converted to the domain units.
func (f *Float) DomainValue() float64 {
	return f.def.factor.Apply(f.value)
}

// SetDomainValue sets the field from a value in the domain units.
func (f *Float) SetDomainValue(v float64) error {
	return f.SetValue(f.def.factor.Unapply(v))
}

// ValueIn returns the value converted to u.
func (f *Float) ValueIn(u units.Units) (float64, error) {
	factor, err := units.Factor(f.def.schema.Units, u)
	if err != nil {
		return 0, newError(f.name, err)
	}

	return factor.Apply(f.value), nil
}

// SetValueIn sets the field from a value expressed in u.
func (f *Float) SetValueIn(u units.Units, v float64) error {
	factor, err := units.Factor(f.def.schema.Units, u)
	if err != nil {
		return newError(f.name, err)
	}

	return f.SetValue(factor.Unapply(v))
}

// Specials returns the named special values of the field.
func (f *Float) Specials() []FloatSpecial { return f.def.schema.Specials }

// IsSpecial reports whether the field holds the named special value.
func (f *Float) IsSpecial(name string) bool {
	for _, sp := range f.def.schema.Specials {
		if sp.Name == name {
			return sp.matches(f.value)
		}
	}

	return false
}

// SetSpecial stores the named special value.
//
// It returns an error wrapping ErrInvalidValue for an undeclared name.
func (f *Float) SetSpecial(name string) error {
	for _, sp := range f.def.schema.Specials {
		if sp.Name == name {
			f.value = sp.Value
			return nil
		}
	}

	return newError(f.name, fmt.Errorf("%w: unknown special %q", ErrInvalidValue, name))
}

// special returns the name of the special value held, if any.
func (f *Float) special() (string, bool) {
	for _, sp := range f.def.schema.Specials {
		if sp.matches(f.value) {
			return sp.Name, true
		}
	}

	return "", false
}

// Length implements Field.Length().
func (f *Float) Length() int { return f.def.width }

// AppendTo implements Field.AppendTo().
func (f *Float) AppendTo(dst []byte) []byte {
	if f.def.width == 4 {
		return wire.AppendUint(dst, uint64(math.Float32bits(float32(f.value))), 4, f.def.schema.Endian)
	}

	return wire.AppendUint(dst, math.Float64bits(f.value), 8, f.def.schema.Endian)
}

// Decode implements Field.Decode().
func (f *Float) Decode(data []byte) (int, error) {
	r := wire.NewReader(data)
	bits, err := r.ReadUint(f.def.width, f.def.schema.Endian)
	if err != nil {
		return 0, newError(f.name, err)
	}

	if f.def.width == 4 {
		f.value = float64(math.Float32frombits(uint32(bits))) //nolint:gosec
	} else {
		f.value = math.Float64frombits(bits)
	}

	if !f.Valid() {
		return f.def.width, newError(f.name, fmt.Errorf("%w: %g outside valid range", ErrInvalidValue, f.value))
	}

	return f.def.width, nil
}

// Valid implements Field.Valid().
func (f *Float) Valid() bool {
	r := f.def.schema.ValidRange
	if r == nil {
		return true
	}
	if _, ok := f.special(); ok {
		return true
	}

	return f.value >= r.Min && f.value <= r.Max
}

// Reset implements Field.Reset().
func (f *Float) Reset() {
	f.value = f.def.schema.Default
	if f.def.width == 4 {
		f.value = float64(float32(f.value))
	}
}

// Clone implements Field.Clone().
func (f *Float) Clone() Field {
	return &Float{baseField: f.baseField, def: f.def, value: f.value}
}

// String implements Field.String().
func (f *Float) String() string {
	s := fmt.Sprintf("%s=%g", f.name, f.value)
	if u := f.def.schema.Units; u != units.None {
		s += " " + u.String()
	}
	if name, ok := f.special(); ok {
		s += " (" + name + ")"
	}

	return s
}
