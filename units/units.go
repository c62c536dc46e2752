// Package units defines the physical units that numeric protocol fields can be
// declared in, and exact conversions between units of the same kind.
//
// Every unit carries a rational ratio to the base unit of its kind (seconds,
// meters, meters per second, hertz, amperes, volts, bytes). Conversions are
// computed as rationals so that decimal conversions like millimeters to meters
// stay exact up to the final float64 division.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompatible indicates a conversion between units of different kinds.
var ErrIncompatible = errors.New("incompatible units")

// Kind groups units that can be converted into each other.
type Kind uint8

const (
	KindNone Kind = iota
	KindTime
	KindDistance
	KindSpeed
	KindFrequency
	KindCurrent
	KindVoltage
	KindMemory
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTime:
		return "time"
	case KindDistance:
		return "distance"
	case KindSpeed:
		return "speed"
	case KindFrequency:
		return "frequency"
	case KindCurrent:
		return "current"
	case KindVoltage:
		return "voltage"
	case KindMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// Units identifies a physical unit.
type Units uint8

const (
	None Units = iota

	Nanoseconds
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
	Weeks

	Nanometers
	Micrometers
	Millimeters
	Centimeters
	Meters
	Kilometers

	MillimetersPerSecond
	CentimetersPerSecond
	MetersPerSecond
	KilometersPerSecond
	KilometersPerHour

	Hertz
	Kilohertz
	Megahertz
	Gigahertz

	Nanoamps
	Microamps
	Milliamps
	Amps
	Kiloamps

	Nanovolts
	Microvolts
	Millivolts
	Volts
	Kilovolts

	Bytes
	Kilobytes
	Megabytes
	Gigabytes
	Terabytes

	numUnits
)

type unitInfo struct {
	name string
	kind Kind
	base Ratio // value in the kind's base unit for 1 of this unit
}

var unitTable = [numUnits]unitInfo{
	None: {name: "none", kind: KindNone, base: One},

	Nanoseconds:  {name: "ns", kind: KindTime, base: Ratio{1, 1_000_000_000}},
	Microseconds: {name: "us", kind: KindTime, base: Ratio{1, 1_000_000}},
	Milliseconds: {name: "ms", kind: KindTime, base: Ratio{1, 1000}},
	Seconds:      {name: "s", kind: KindTime, base: One},
	Minutes:      {name: "min", kind: KindTime, base: Ratio{60, 1}},
	Hours:        {name: "h", kind: KindTime, base: Ratio{3600, 1}},
	Days:         {name: "d", kind: KindTime, base: Ratio{86400, 1}},
	Weeks:        {name: "week", kind: KindTime, base: Ratio{604800, 1}},

	Nanometers:  {name: "nm", kind: KindDistance, base: Ratio{1, 1_000_000_000}},
	Micrometers: {name: "um", kind: KindDistance, base: Ratio{1, 1_000_000}},
	Millimeters: {name: "mm", kind: KindDistance, base: Ratio{1, 1000}},
	Centimeters: {name: "cm", kind: KindDistance, base: Ratio{1, 100}},
	Meters:      {name: "m", kind: KindDistance, base: One},
	Kilometers:  {name: "km", kind: KindDistance, base: Ratio{1000, 1}},

	MillimetersPerSecond: {name: "mm/s", kind: KindSpeed, base: Ratio{1, 1000}},
	CentimetersPerSecond: {name: "cm/s", kind: KindSpeed, base: Ratio{1, 100}},
	MetersPerSecond:      {name: "m/s", kind: KindSpeed, base: One},
	KilometersPerSecond:  {name: "km/s", kind: KindSpeed, base: Ratio{1000, 1}},
	KilometersPerHour:    {name: "km/h", kind: KindSpeed, base: Ratio{5, 18}},

	Hertz:     {name: "Hz", kind: KindFrequency, base: One},
	Kilohertz: {name: "kHz", kind: KindFrequency, base: Ratio{1000, 1}},
	Megahertz: {name: "MHz", kind: KindFrequency, base: Ratio{1_000_000, 1}},
	Gigahertz: {name: "GHz", kind: KindFrequency, base: Ratio{1_000_000_000, 1}},

	Nanoamps:  {name: "nA", kind: KindCurrent, base: Ratio{1, 1_000_000_000}},
	Microamps: {name: "uA", kind: KindCurrent, base: Ratio{1, 1_000_000}},
	Milliamps: {name: "mA", kind: KindCurrent, base: Ratio{1, 1000}},
	Amps:      {name: "A", kind: KindCurrent, base: One},
	Kiloamps:  {name: "kA", kind: KindCurrent, base: Ratio{1000, 1}},

	Nanovolts:  {name: "nV", kind: KindVoltage, base: Ratio{1, 1_000_000_000}},
	Microvolts: {name: "uV", kind: KindVoltage, base: Ratio{1, 1_000_000}},
	Millivolts: {name: "mV", kind: KindVoltage, base: Ratio{1, 1000}},
	Volts:      {name: "V", kind: KindVoltage, base: One},
	Kilovolts:  {name: "kV", kind: KindVoltage, base: Ratio{1000, 1}},

	Bytes:     {name: "B", kind: KindMemory, base: One},
	Kilobytes: {name: "KiB", kind: KindMemory, base: Ratio{1 << 10, 1}},
	Megabytes: {name: "MiB", kind: KindMemory, base: Ratio{1 << 20, 1}},
	Gigabytes: {name: "GiB", kind: KindMemory, base: Ratio{1 << 30, 1}},
	Terabytes: {name: "TiB", kind: KindMemory, base: Ratio{1 << 40, 1}},
}

// IsValid reports whether u is a known unit.
func (u Units) IsValid() bool { return u < numUnits }

// Kind returns the kind of u, or KindNone for unknown units.
func (u Units) Kind() Kind {
	if !u.IsValid() {
		return KindNone
	}

	return unitTable[u].kind
}

// String returns the unit symbol, e.g. "mm" or "km/h".
func (u Units) String() string {
	if !u.IsValid() {
		return fmt.Sprintf("units(%d)", uint8(u))
	}

	return unitTable[u].name
}

// Compatible reports whether values in u can be converted to other.
func (u Units) Compatible(other Units) bool {
	return u.IsValid() && other.IsValid() && u.Kind() == other.Kind()
}

// Factor returns the ratio r such that value_in_to = value_in_from * r.
func Factor(from, to Units) (Ratio, error) {
	if !from.Compatible(to) {
		return Ratio{}, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrIncompatible, from, from.Kind(), to, to.Kind())
	}
	if from == to {
		return One, nil
	}

	return unitTable[from].base.Mul(unitTable[to].base.Inv()), nil
}

// Convert converts v from one unit to another.
func Convert(v float64, from, to Units) (float64, error) {
	r, err := Factor(from, to)
	if err != nil {
		return 0, err
	}

	return r.Apply(v), nil
}

// Parse returns the unit with the given symbol. Matching is case sensitive for
// symbols ("mA" vs "MA" are different prefixes) but also accepts lower-case
// long names like "meters" or "seconds".
func Parse(name string) (Units, error) {
	for u := None; u < numUnits; u++ {
		if unitTable[u].name == name {
			return u, nil
		}
	}

	if u, ok := longNames[strings.ToLower(name)]; ok {
		return u, nil
	}

	return None, fmt.Errorf("unknown units %q", name)
}

var longNames = map[string]Units{
	"":             None,
	"nanoseconds":  Nanoseconds,
	"microseconds": Microseconds,
	"milliseconds": Milliseconds,
	"seconds":      Seconds,
	"minutes":      Minutes,
	"hours":        Hours,
	"days":         Days,
	"weeks":        Weeks,
	"nanometers":   Nanometers,
	"micrometers":  Micrometers,
	"millimeters":  Millimeters,
	"centimeters":  Centimeters,
	"meters":       Meters,
	"kilometers":   Kilometers,
	"hertz":        Hertz,
	"kilohertz":    Kilohertz,
	"megahertz":    Megahertz,
	"gigahertz":    Gigahertz,
	"amps":         Amps,
	"milliamps":    Milliamps,
	"volts":        Volts,
	"millivolts":   Millivolts,
	"bytes":        Bytes,
	"kilobytes":    Kilobytes,
	"megabytes":    Megabytes,
}
