// Package field provides the typed field model of schema-defined binary messages.
//
// A field definition is compiled once from a schema struct and then used to create field
// instances for every message value:
//
//	var distanceDef = field.MustDefineInt(field.IntSchema{
//	    Name:        "distance",
//	    Type:        field.Int32,
//	    Scaling:     units.Ratio{Num: 1, Den: 100},
//	    Units:       units.Millimeters,
//	    DomainUnits: units.Meters,
//	})
//
//	f := distanceDef.New()
//	_ = f.SetDomainValue(0.1) // raw value 10000, scaled value 100.0 mm
//
// Key Features:
//   - Scaled integers: a raw wire integer exposed through a fixed-point scaling ratio and
//     a unit conversion composed into one exact rational at definition time.
//   - Fixed and variable width integer encodings, serialization offsets, valid ranges and
//     named special values.
//   - Enum, float, bitmask, string and data fields with fixed, length-prefixed or
//     zero-terminated encodings.
//   - Bitfields packing signed and unsigned members into one integer, nested bundles,
//     optional trailing fields and named float values such as a NaN "null".
//
// The raw value is the single source of truth; every scaled view is derived on read.
package field
