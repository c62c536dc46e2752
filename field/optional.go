package field

import "fmt"

// OptionalMode tells whether an optional field is present on the wire.
type OptionalMode uint8

const (
	// Tentative fields are resolved by Decode: present when data remains, missing otherwise.
	// A tentative field is not encoded.
	Tentative OptionalMode = iota
	Exists
	Missing
)

func (m OptionalMode) String() string {
	switch m {
	case Tentative:
		return "tentative"
	case Exists:
		return "exists"
	case Missing:
		return "missing"
	default:
		return fmt.Sprintf("optionalmode(%d)", uint8(m))
	}
}

// OptionalSchema declares a field that may be absent, typically at the end of a message.
type OptionalSchema struct {
	Field Definition

	// Mode is the mode a new or reset field starts in.
	Mode OptionalMode
}

// OptionalDef is the compiled definition of an optional field.
type OptionalDef struct {
	schema OptionalSchema
}

// DefineOptional compiles an optional field schema.
func DefineOptional(schema OptionalSchema) (*OptionalDef, error) {
	if schema.Field == nil {
		return nil, fmt.Errorf("%w: optional field without a definition", ErrInvalidSchema)
	}
	if schema.Mode > Missing {
		return nil, fmt.Errorf("%w: field %s: unknown mode %d", ErrInvalidSchema, schema.Field.NewField().Name(), schema.Mode)
	}

	return &OptionalDef{schema: schema}, nil
}

// MustDefineOptional is like DefineOptional but panics on an invalid schema.
func MustDefineOptional(schema OptionalSchema) *OptionalDef {
	def, err := DefineOptional(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates an optional field in the schema mode, wrapping a default inner field.
func (d *OptionalDef) New() *Optional {
	inner := d.schema.Field.NewField()
	return &Optional{baseField: baseField{name: inner.Name()}, def: d, field: inner, mode: d.schema.Mode}
}

// NewField implements Definition.NewField().
func (d *OptionalDef) NewField() Field { return d.New() }

// Optional wraps a field that is encoded only when it exists.
type Optional struct {
	baseField
	def   *OptionalDef
	field Field
	mode  OptionalMode
}

var _ Field = (*Optional)(nil)

// Kind implements Field.Kind().
func (f *Optional) Kind() Kind { return OptionalKind }

// Field returns the wrapped field.
func (f *Optional) Field() Field { return f.field }

// Mode returns the current mode.
func (f *Optional) Mode() OptionalMode { return f.mode }

// SetMode changes the mode.
func (f *Optional) SetMode(m OptionalMode) error {
	if m > Missing {
		return newError(f.name, fmt.Errorf("%w: unknown mode %d", ErrInvalidValue, m))
	}
	f.mode = m

	return nil
}

// Exists reports whether the field is present.
func (f *Optional) Exists() bool { return f.mode == Exists }

// Length implements Field.Length().
func (f *Optional) Length() int {
	if f.mode != Exists {
		return 0
	}

	return f.field.Length()
}

// AppendTo implements Field.AppendTo().
func (f *Optional) AppendTo(dst []byte) []byte {
	if f.mode != Exists {
		return dst
	}

	return f.field.AppendTo(dst)
}

// Decode implements Field.Decode().
//
// A missing field consumes nothing. A tentative field becomes missing on empty data
// and exists otherwise.
func (f *Optional) Decode(data []byte) (int, error) {
	if f.mode == Tentative {
		f.mode = Exists
		if len(data) == 0 {
			f.mode = Missing
		}
	}
	if f.mode == Missing {
		return 0, nil
	}

	return f.field.Decode(data)
}

// Valid implements Field.Valid().
func (f *Optional) Valid() bool {
	return f.mode != Exists || f.field.Valid()
}

// Reset implements Field.Reset().
func (f *Optional) Reset() {
	f.mode = f.def.schema.Mode
	f.field.Reset()
}

// Clone implements Field.Clone().
func (f *Optional) Clone() Field {
	return &Optional{baseField: f.baseField, def: f.def, field: f.field.Clone(), mode: f.mode}
}

// String implements Field.String().
func (f *Optional) String() string {
	if f.mode != Exists {
		return fmt.Sprintf("%s=<%s>", f.name, f.mode)
	}

	return f.field.String()
}
