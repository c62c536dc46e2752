package field

import (
	"fmt"
	"slices"
)

// EnumValue is a named enumeration value.
type EnumValue struct {
	Name  string
	Value int64
}

// EnumSchema declares an enumeration field over an integer wire type.
type EnumSchema struct {
	Name   string
	Type   IntType
	Length int
	Endian Endian

	// Values lists the declared values in schema order.
	Values []EnumValue

	// Default is the value of a new or reset field. It must be one of Values.
	// When Values is not empty and Default is not declared, the first value is used.
	Default int64
}

// EnumDef is the compiled definition of an enumeration field.
type EnumDef struct {
	schema EnumSchema
	layout intLayout
	byName map[string]int64
	byVal  map[int64]string
}

// DefineEnum compiles an enumeration field schema.
func DefineEnum(schema EnumSchema) (*EnumDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}

	layout, err := newIntLayout(schema.Type, schema.Length, schema.Endian)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", schema.Name, err)
	}

	def := &EnumDef{
		schema: schema,
		layout: layout,
		byName: make(map[string]int64, len(schema.Values)),
		byVal:  make(map[int64]string, len(schema.Values)),
	}
	def.schema.Values = slices.Clone(schema.Values)

	for _, v := range def.schema.Values {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: field %s: empty enum value name", ErrInvalidSchema, schema.Name)
		}
		if _, ok := def.byName[v.Name]; ok {
			return nil, fmt.Errorf("%w: field %s: duplicate enum name %q", ErrInvalidSchema, schema.Name, v.Name)
		}
		if _, ok := def.byVal[v.Value]; ok {
			return nil, fmt.Errorf("%w: field %s: duplicate enum value %d", ErrInvalidSchema, schema.Name, v.Value)
		}
		if !layout.fits(uint64(v.Value)) { //nolint:gosec
			return nil, fmt.Errorf("%w: field %s: enum value %s=%d overflows %s", ErrInvalidSchema, schema.Name, v.Name, v.Value, layout.typ)
		}
		def.byName[v.Name] = v.Value
		def.byVal[v.Value] = v.Name
	}

	if len(def.schema.Values) > 0 {
		if _, ok := def.byVal[schema.Default]; !ok {
			def.schema.Default = def.schema.Values[0].Value
		}
	}

	return def, nil
}

// MustDefineEnum is like DefineEnum but panics on an invalid schema.
func MustDefineEnum(schema EnumSchema) *EnumDef {
	def, err := DefineEnum(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a field instance holding the default value.
func (d *EnumDef) New() *Enum {
	return &Enum{baseField: baseField{name: d.schema.Name}, def: d, value: d.schema.Default}
}

// NewField implements Definition.NewField().
func (d *EnumDef) NewField() Field { return d.New() }

// Values returns the declared values in schema order.
func (d *EnumDef) Values() []EnumValue { return d.schema.Values }

// Lookup returns the value declared with name.
func (d *EnumDef) Lookup(name string) (int64, bool) {
	v, ok := d.byName[name]
	return v, ok
}

// Enum is an enumeration field instance.
type Enum struct {
	baseField
	def   *EnumDef
	value int64
}

var _ Field = (*Enum)(nil)

// Kind implements Field.Kind().
func (f *Enum) Kind() Kind { return EnumKind }

// Value returns the current numeric value.
func (f *Enum) Value() int64 { return f.value }

// SetValue sets a declared value. Undeclared values return an error wrapping ErrInvalidValue.
func (f *Enum) SetValue(v int64) error {
	if _, ok := f.def.byVal[v]; !ok {
		return newError(f.name, fmt.Errorf("%w: undeclared enum value %d", ErrInvalidValue, v))
	}
	f.value = v

	return nil
}

// SetName sets the field to the value declared with name.
func (f *Enum) SetName(name string) error {
	v, ok := f.def.byName[name]
	if !ok {
		return newError(f.name, fmt.Errorf("%w: undeclared enum name %q", ErrInvalidValue, name))
	}
	f.value = v

	return nil
}

// ValueName returns the name of the current value, or "" if it is not declared.
func (f *Enum) ValueName() string {
	return f.def.byVal[f.value]
}

// Length implements Field.Length().
func (f *Enum) Length() int {
	return f.def.layout.length(uint64(f.value)) //nolint:gosec
}

// AppendTo implements Field.AppendTo().
func (f *Enum) AppendTo(dst []byte) []byte {
	return f.def.layout.appendTo(dst, uint64(f.value)) //nolint:gosec
}

// Decode implements Field.Decode().
func (f *Enum) Decode(data []byte) (int, error) {
	v, n, err := f.def.layout.decode(data)
	if err != nil {
		return n, newError(f.name, err)
	}
	f.value = int64(v) //nolint:gosec

	if !f.Valid() {
		return n, newError(f.name, fmt.Errorf("%w: undeclared enum value %s", ErrInvalidValue, f.def.layout.format(v)))
	}

	return n, nil
}

// Valid implements Field.Valid().
func (f *Enum) Valid() bool {
	_, ok := f.def.byVal[f.value]
	return ok
}

// Reset implements Field.Reset().
func (f *Enum) Reset() { f.value = f.def.schema.Default }

// Clone implements Field.Clone().
func (f *Enum) Clone() Field {
	return &Enum{baseField: f.baseField, def: f.def, value: f.value}
}

// String implements Field.String().
func (f *Enum) String() string {
	if name := f.ValueName(); name != "" {
		return fmt.Sprintf("%s=%s(%d)", f.name, name, f.value)
	}

	return fmt.Sprintf("%s=%d", f.name, f.value)
}
