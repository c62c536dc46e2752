package field

import (
	"fmt"
	"slices"
	"strings"
)

// BundleSchema declares an ordered group of fields encoded back to back.
type BundleSchema struct {
	Name    string
	Members []Definition
}

// BundleDef is the compiled definition of a bundle.
type BundleDef struct {
	schema BundleSchema
	byName map[string]int
}

// DefineBundle compiles a bundle schema. Member names must be unique.
func DefineBundle(schema BundleSchema) (*BundleDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}

	def := &BundleDef{schema: schema, byName: make(map[string]int, len(schema.Members))}
	def.schema.Members = slices.Clone(schema.Members)

	for i, m := range def.schema.Members {
		if m == nil {
			return nil, fmt.Errorf("%w: field %s: nil member at %d", ErrInvalidSchema, schema.Name, i)
		}
		name := m.NewField().Name()
		if _, ok := def.byName[name]; ok {
			return nil, fmt.Errorf("%w: field %s: duplicate member %q", ErrInvalidSchema, schema.Name, name)
		}
		def.byName[name] = i
	}

	return def, nil
}

// MustDefineBundle is like DefineBundle but panics on an invalid schema.
func MustDefineBundle(schema BundleSchema) *BundleDef {
	def, err := DefineBundle(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a bundle whose members hold their defaults.
func (d *BundleDef) New() *Bundle {
	f := &Bundle{baseField: baseField{name: d.schema.Name}, def: d, fields: make([]Field, len(d.schema.Members))}
	for i, m := range d.schema.Members {
		f.fields[i] = m.NewField()
	}

	return f
}

// NewField implements Definition.NewField().
func (d *BundleDef) NewField() Field { return d.New() }

// Bundle is a nested group of fields.
type Bundle struct {
	baseField
	def    *BundleDef
	fields []Field
}

var _ Field = (*Bundle)(nil)

// Kind implements Field.Kind().
func (f *Bundle) Kind() Kind { return BundleKind }

// Fields returns the members in wire order.
func (f *Bundle) Fields() []Field { return f.fields }

// Field returns the named member, or nil.
func (f *Bundle) Field(name string) Field {
	i, ok := f.def.byName[name]
	if !ok {
		return nil
	}

	return f.fields[i]
}

// Length implements Field.Length().
func (f *Bundle) Length() int {
	n := 0
	for _, fld := range f.fields {
		n += fld.Length()
	}

	return n
}

// AppendTo implements Field.AppendTo().
func (f *Bundle) AppendTo(dst []byte) []byte {
	for _, fld := range f.fields {
		dst = fld.AppendTo(dst)
	}

	return dst
}

// Decode implements Field.Decode().
//
// Members decode in order. The first failing member stops decoding and the bytes
// consumed so far are reported.
func (f *Bundle) Decode(data []byte) (int, error) {
	pos := 0
	for _, fld := range f.fields {
		n, err := fld.Decode(data[pos:])
		pos += n
		if err != nil {
			return pos, newError(f.name, err)
		}
	}

	return pos, nil
}

// Valid implements Field.Valid().
func (f *Bundle) Valid() bool {
	for _, fld := range f.fields {
		if !fld.Valid() {
			return false
		}
	}

	return true
}

// Reset implements Field.Reset().
func (f *Bundle) Reset() {
	for _, fld := range f.fields {
		fld.Reset()
	}
}

// Clone implements Field.Clone().
func (f *Bundle) Clone() Field {
	clone := &Bundle{baseField: f.baseField, def: f.def, fields: make([]Field, len(f.fields))}
	for i, fld := range f.fields {
		clone.fields[i] = fld.Clone()
	}

	return clone
}

// String implements Field.String().
func (f *Bundle) String() string {
	parts := make([]string, len(f.fields))
	for i, fld := range f.fields {
		parts[i] = fld.String()
	}

	return fmt.Sprintf("%s={%s}", f.name, strings.Join(parts, ", "))
}
