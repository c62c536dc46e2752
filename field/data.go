package field

import (
	"fmt"

	"github.com/arloliu/go-comms/internal/util"
)

// DataSchema declares a raw bytes field.
type DataSchema struct {
	Name   string
	Prefix Prefix // PrefixZeroTerm is not supported

	// MaxLength caps the content length below what the prefix can express. Zero means no cap.
	MaxLength int

	Default []byte
}

// DataDef is the compiled definition of a data field.
type DataDef struct {
	schema DataSchema
	max    int
}

// DefineData compiles a data field schema.
func DefineData(schema DataSchema) (*DataDef, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	if err := schema.Prefix.validate(false); err != nil {
		return nil, fmt.Errorf("field %s: %w", schema.Name, err)
	}
	if schema.MaxLength < 0 {
		return nil, fmt.Errorf("%w: field %s: negative max length", ErrInvalidSchema, schema.Name)
	}

	def := &DataDef{schema: schema, max: schema.Prefix.maxContent()}
	if schema.MaxLength > 0 && schema.MaxLength < def.max {
		def.max = schema.MaxLength
	}
	if len(schema.Default) > def.max {
		return nil, fmt.Errorf("%w: field %s: default length %d exceeds %d", ErrInvalidSchema, schema.Name, len(schema.Default), def.max)
	}
	def.schema.Default = util.CloneSlice(schema.Default, 0)

	return def, nil
}

// MustDefineData is like DefineData but panics on an invalid schema.
func MustDefineData(schema DataSchema) *DataDef {
	def, err := DefineData(schema)
	if err != nil {
		panic(err)
	}

	return def
}

// New creates a field instance holding the default value.
func (d *DataDef) New() *Data {
	f := &Data{baseField: baseField{name: d.schema.Name}, def: d}
	f.Reset()

	return f
}

// NewField implements Definition.NewField().
func (d *DataDef) NewField() Field { return d.New() }

// Data is a raw bytes field instance.
type Data struct {
	baseField
	def   *DataDef
	value []byte
}

var _ Field = (*Data)(nil)

// Kind implements Field.Kind().
func (f *Data) Kind() Kind { return DataKind }

// Value returns the current bytes. The returned slice must not be modified.
func (f *Data) Value() []byte { return f.value }

// SetValue stores a copy of b.
//
// It returns an error wrapping ErrRange if b is longer than the prefix can express.
func (f *Data) SetValue(b []byte) error {
	if len(b) > f.def.max {
		return newError(f.name, fmt.Errorf("%w: length %d exceeds %d", ErrRange, len(b), f.def.max))
	}
	f.value = util.CloneSlice(b, 0)

	return nil
}

// Length implements Field.Length().
func (f *Data) Length() int {
	return f.def.schema.Prefix.encodedLength(len(f.value))
}

// AppendTo implements Field.AppendTo().
func (f *Data) AppendTo(dst []byte) []byte {
	return f.def.schema.Prefix.appendTo(dst, f.value)
}

// Decode implements Field.Decode().
//
// The decoded bytes are copied; fixed length data keeps its padding.
func (f *Data) Decode(data []byte) (int, error) {
	content, n, err := f.def.schema.Prefix.decode(data)
	if err != nil {
		return n, newError(f.name, err)
	}
	f.value = util.CloneSlice(content, 0)

	if len(content) > f.def.max {
		return n, newError(f.name, fmt.Errorf("%w: length %d exceeds %d", ErrInvalidValue, len(content), f.def.max))
	}

	return n, nil
}

// Valid implements Field.Valid().
func (f *Data) Valid() bool {
	return len(f.value) <= f.def.max
}

// Reset implements Field.Reset().
func (f *Data) Reset() {
	f.value = util.CloneSlice(f.def.schema.Default, 0)
}

// Clone implements Field.Clone().
func (f *Data) Clone() Field {
	return &Data{baseField: f.baseField, def: f.def, value: util.CloneSlice(f.value, 0)}
}

// String implements Field.String().
func (f *Data) String() string {
	return fmt.Sprintf("%s=%s", f.name, util.FormatHex(f.value, 16))
}
