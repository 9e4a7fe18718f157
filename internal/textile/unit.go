// Package textile holds the domain primitives shared by the calculators,
// the backend normalisers and the report renderers.
package textile

import "strings"

// Unit is the authoritative quantity unit of a document (satuan_unit).
type Unit string

const (
	UnitMeter    Unit = "Meter"
	UnitYard     Unit = "Yard"
	UnitKilogram Unit = "Kilogram"
)

// ParseUnit resolves a unit name case-insensitively. Unknown names report false.
func ParseUnit(name string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "meter", "m", "mtr":
		return UnitMeter, true
	case "yard", "yd", "yds":
		return UnitYard, true
	case "kilogram", "kg", "kilo":
		return UnitKilogram, true
	default:
		return "", false
	}
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitMeter, UnitYard, UnitKilogram:
		return true
	default:
		return false
	}
}

// Field returns the lowercase token used in backend summary field names.
func (u Unit) Field() string {
	return strings.ToLower(string(u))
}

// Short returns the abbreviation printed in report headers.
func (u Unit) Short() string {
	switch u {
	case UnitMeter:
		return "m"
	case UnitYard:
		return "yd"
	case UnitKilogram:
		return "kg"
	default:
		return "-"
	}
}
