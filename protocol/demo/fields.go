package demo

import (
	"math"

	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/units"
)

// Mode is the device operating mode.
type Mode int64

const (
	ModeIdle  Mode = 0
	ModeRun   Mode = 1
	ModeFault Mode = 2
)

// Flags bits.
const (
	FlagReady = "ready"
	FlagBusy  = "busy"
	FlagError = "error"
)

// Status header members.
const (
	HeaderChannel = "channel"
	HeaderLevel   = "level"
)

// TemperatureNull marks a missing temperature reading.
const TemperatureNull = "null"

var (
	msg1DistanceDef = field.MustDefineInt(field.IntSchema{
		Name:        "f1",
		Type:        field.Int32,
		Scaling:     units.Ratio{Num: 1, Den: 100},
		Units:       units.Millimeters,
		DomainUnits: units.Meters,
		Specials:    []field.Special{{Name: "Unknown", Value: -1}},
	})
	msg1ModeDef = field.MustDefineEnum(field.EnumSchema{
		Name: "f2",
		Type: field.Uint8,
		Values: []field.EnumValue{
			{Name: "Idle", Value: int64(ModeIdle)},
			{Name: "Run", Value: int64(ModeRun)},
			{Name: "Fault", Value: int64(ModeFault)},
		},
	})

	msg2DistanceDef = field.MustDefineInt(field.IntSchema{
		Name:        "f1",
		Type:        field.Uint32,
		Scaling:     units.Ratio{Num: 1, Den: 100},
		Units:       units.Millimeters,
		DomainUnits: units.Meters,
	})
	msg2DurationDef = field.MustDefineFloat(field.FloatSchema{
		Name:       "f2",
		Type:       field.Float32,
		Units:      units.Seconds,
		ValidRange: &field.FloatRange{Min: 0, Max: 86400},
	})
	msg2FlagsDef = field.MustDefineBitmask(field.BitmaskSchema{
		Name: "f3",
		Type: field.Uint8,
		Bits: []field.Bit{
			{Name: FlagReady, Index: 0},
			{Name: FlagBusy, Index: 1},
			{Name: FlagError, Index: 7},
		},
		ReserveUndeclared: true,
	})

	textLabelDef = field.MustDefineString(field.StringSchema{
		Name:   "f1",
		Prefix: field.LengthPrefix(field.PrefixU8),
	})
	textBlobDef = field.MustDefineData(field.DataSchema{
		Name:   "f2",
		Prefix: field.LengthPrefix(field.PrefixU16),
	})
	textCounterDef = field.MustDefineInt(field.IntSchema{
		Name: "f3",
		Type: field.Uintvar,
	})

	statusHeaderDef = field.MustDefineBitfield(field.BitfieldSchema{
		Name: "f1",
		Type: field.Uint8,
		Members: []field.BitfieldMember{
			{Name: HeaderChannel, Bits: 4},
			{Name: HeaderLevel, Bits: 4, ValidRange: &field.Range{Min: 0, Max: 9}},
		},
	})
	statusPositionDef = field.MustDefineBundle(field.BundleSchema{
		Name: "f2",
		Members: []field.Definition{
			field.MustDefineInt(field.IntSchema{Name: "x", Type: field.Int16, Units: units.Millimeters, DomainUnits: units.Meters}),
			field.MustDefineInt(field.IntSchema{Name: "y", Type: field.Int16, Units: units.Millimeters, DomainUnits: units.Meters}),
		},
	})
	statusTemperatureDef = field.MustDefineFloat(field.FloatSchema{
		Name:       "f3",
		Type:       field.Float32,
		Default:    math.NaN(),
		ValidRange: &field.FloatRange{Min: -40, Max: 125},
		Specials:   []field.FloatSpecial{{Name: TemperatureNull, Value: math.NaN()}},
	})
	statusSeqDef = field.MustDefineOptional(field.OptionalSchema{
		Field: field.MustDefineInt(field.IntSchema{Name: "f4", Type: field.Uint16}),
	})
)

// Distance is a distance field exposed in meters and millimeters.
type Distance struct {
	*field.Int
}

// Meters returns the distance in meters.
func (f Distance) Meters() float64 { return f.DomainValue() }

// SetMeters sets the distance in meters.
func (f Distance) SetMeters(v float64) error { return f.SetDomainValue(v) }

// Millimeters returns the distance in millimeters.
func (f Distance) Millimeters() float64 { return f.Scaled() }

// SetMillimeters sets the distance in millimeters.
func (f Distance) SetMillimeters(v float64) error { return f.SetScaled(v) }

// ModeField is the enum field holding a Mode.
type ModeField struct {
	*field.Enum
}

// Mode returns the current mode.
func (f ModeField) Mode() Mode { return Mode(f.Value()) }

// SetMode sets the mode.
func (f ModeField) SetMode(m Mode) error { return f.SetValue(int64(m)) }

// Duration is a float field stored in seconds.
type Duration struct {
	*field.Float
}

// Seconds returns the duration in seconds.
func (f Duration) Seconds() float64 { return f.Value() }

// SetSeconds sets the duration in seconds.
func (f Duration) SetSeconds(v float64) error { return f.SetValue(v) }

// Milliseconds returns the duration in milliseconds.
func (f Duration) Milliseconds() float64 {
	v, _ := f.ValueIn(units.Milliseconds)
	return v
}

// SetMilliseconds sets the duration in milliseconds.
func (f Duration) SetMilliseconds(v float64) error { return f.SetValueIn(units.Milliseconds, v) }

// Flags is the status bitmask.
type Flags struct {
	*field.Bitmask
}

// Ready reports the ready bit.
func (f Flags) Ready() bool { return f.Bit(FlagReady) }

// SetReady sets the ready bit.
func (f Flags) SetReady(v bool) { _ = f.SetBit(FlagReady, v) }

// Busy reports the busy bit.
func (f Flags) Busy() bool { return f.Bit(FlagBusy) }

// SetBusy sets the busy bit.
func (f Flags) SetBusy(v bool) { _ = f.SetBit(FlagBusy, v) }

// ErrorBit reports the error bit.
func (f Flags) ErrorBit() bool { return f.Bit(FlagError) }

// SetErrorBit sets the error bit.
func (f Flags) SetErrorBit(v bool) { _ = f.SetBit(FlagError, v) }

// Header packs the channel number and the signal level into one byte.
type Header struct {
	*field.Bitfield
}

// Channel returns the channel number.
func (f Header) Channel() int64 { return f.Member(HeaderChannel) }

// SetChannel sets the channel number.
func (f Header) SetChannel(v int64) error { return f.SetMember(HeaderChannel, v) }

// Level returns the signal level.
func (f Header) Level() int64 { return f.Member(HeaderLevel) }

// SetLevel sets the signal level. Levels above 9 are invalid.
func (f Header) SetLevel(v int64) error { return f.SetMember(HeaderLevel, v) }

// Position is a pair of distances in millimeters.
type Position struct {
	*field.Bundle
}

// X returns the x coordinate.
func (f Position) X() Distance { return Distance{f.Fields()[0].(*field.Int)} }

// Y returns the y coordinate.
func (f Position) Y() Distance { return Distance{f.Fields()[1].(*field.Int)} }

// Temperature is a float field in degrees with a NaN null value.
type Temperature struct {
	*field.Float
}

// IsNull reports whether no reading is available.
func (f Temperature) IsNull() bool { return f.IsSpecial(TemperatureNull) }

// SetNull clears the reading.
func (f Temperature) SetNull() { _ = f.SetSpecial(TemperatureNull) }

// Sequence is an optional trailing sequence number.
type Sequence struct {
	*field.Optional
}

// Value returns the sequence number and whether it is present.
func (f Sequence) Value() (uint64, bool) {
	return f.Field().(*field.Int).Uint(), f.Exists()
}

// SetValue sets the sequence number and marks it present.
func (f Sequence) SetValue(v uint64) error {
	if err := f.Field().(*field.Int).SetUint(v); err != nil {
		return err
	}

	return f.SetMode(field.Exists)
}
