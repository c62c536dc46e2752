package field

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// StringSchema declares a string field.
type StringSchema struct {
	Name   string
	Prefix Prefix

	// MaxLength caps the content length below what the prefix can express. Zero means no cap.
	MaxLength int

	Default string
}

// StringDef is the compiled definition of a string field.
type StringDef struct {
	schema StringSchema
	max    int
}

// DefineString compiles a string field schema.
func DefineString(schema StringSchema) (*StringDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	if err := schema.Prefix.validate(true); err != nil {
		return nil, fmt.Errorf("field %s: %w", schema.Name, err)
	}

	def := &StringDef{schema: schema, max: schema.Prefix.maxContent()}
	if schema.MaxLength < 0 {
		return nil, fmt.Errorf("%w: field %s: negative max length", ErrInvalidSchema, schema.Name)
	}
	if schema.MaxLength > 0 && schema.MaxLength < def.max {
		def.max = schema.MaxLength
	}

	if err := def.check(schema.Default); err != nil {
		return nil, fmt.Errorf("%w: field %s: invalid default: %w", ErrInvalidSchema, schema.Name, err)
	}

	return def, nil
}

// MustDefineString is like DefineString but panics on an invalid schema.
func MustDefineString(schema StringSchema) *StringDef {
	def, err := DefineString(schema)
	if err != nil {
		panic(err)
	}

	return def
}

func (d *StringDef) check(s string) error {
	if len(s) > d.max {
		return fmt.Errorf("%w: length %d exceeds %d", ErrRange, len(s), d.max)
	}
	if kind := d.schema.Prefix.Kind; (kind == PrefixZeroTerm || kind == PrefixFixed) && strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: zero byte inside %s string", ErrInvalidValue, kind)
	}

	return nil
}

// New creates a field instance holding the default value.
func (d *StringDef) New() *String {
	return &String{baseField: baseField{name: d.schema.Name}, def: d, value: d.schema.Default}
}

// NewField implements Definition.NewField().
func (d *StringDef) NewField() Field { return d.New() }

// String is a string field instance.
type String struct {
	baseField
	def   *StringDef
	value string
}

var _ Field = (*String)(nil)

// Kind implements Field.Kind().
func (f *String) Kind() Kind { return StringKind }

// Value returns the current string.
func (f *String) Value() string { return f.value }

// SetValue sets the string.
//
// It returns an error wrapping ErrRange if s is longer than the prefix can express.
func (f *String) SetValue(s string) error {
	if err := f.def.check(s); err != nil {
		return newError(f.name, err)
	}
	f.value = s

	return nil
}

// Length implements Field.Length().
func (f *String) Length() int {
	return f.def.schema.Prefix.encodedLength(len(f.value))
}

// AppendTo implements Field.AppendTo().
func (f *String) AppendTo(dst []byte) []byte {
	return f.def.schema.Prefix.appendTo(dst, []byte(f.value))
}

// Decode implements Field.Decode().
//
// Fixed length strings drop their zero padding.
func (f *String) Decode(data []byte) (int, error) {
	content, n, err := f.def.schema.Prefix.decode(data)
	if err != nil {
		return n, newError(f.name, err)
	}

	if f.def.schema.Prefix.Kind == PrefixFixed {
		if idx := bytes.IndexByte(content, 0); idx >= 0 {
			content = content[:idx]
		}
	}
	f.value = string(content)

	if len(content) > f.def.max {
		return n, newError(f.name, fmt.Errorf("%w: length %d exceeds %d", ErrInvalidValue, len(content), f.def.max))
	}

	return n, nil
}

// Valid implements Field.Valid().
func (f *String) Valid() bool {
	return f.def.check(f.value) == nil
}

// Reset implements Field.Reset().
func (f *String) Reset() { f.value = f.def.schema.Default }

// Clone implements Field.Clone().
func (f *String) Clone() Field {
	return &String{baseField: f.baseField, def: f.def, value: f.value}
}

// String implements Field.String().
func (f *String) String() string {
	return f.name + "=" + strconv.Quote(f.value)
}
