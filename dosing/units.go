// Package dosing implements the dose-shorthand parsing and classification core:
// unit conversion, the administration-route vocabulary, the dose string parser,
// substance matching against reference catalogs, tier classification and safety
// info resolution. Everything in this package is pure computation over its
// inputs; catalogs are supplied already loaded and are never mutated.
package dosing

import "fmt"

// Unit is a dose unit token in its canonical spelling.
type Unit string

const (
	UnitMg Unit = "mg"
	UnitG  Unit = "g"
	UnitUg Unit = "ug"
	UnitMl Unit = "ml"
)

type unitFamily string

const (
	familyMass   unitFamily = "mass"
	familyVolume unitFamily = "volume"
)

type unitDef struct {
	family unitFamily
	toMg   float64 // conversion factor to mg; unused for volume units
}

// Mass units pivot through mg. ml belongs to a separate volume family and is
// never converted to or from mass (there is no density model).
var unitTable = map[Unit]unitDef{
	UnitMg: {family: familyMass, toMg: 1},
	UnitG:  {family: familyMass, toMg: 1000},
	UnitUg: {family: familyMass, toMg: 0.001},
	UnitMl: {family: familyVolume},
}

// unitSpellings maps accepted unit spellings to their canonical token.
var unitSpellings = map[string]Unit{
	"mg":  UnitMg,
	"g":   UnitG,
	"ug":  UnitUg,
	"μg":  UnitUg,
	"mcg": UnitUg,
	"ml":  UnitMl,
}

// UnsupportedUnitError reports a unit token outside the supported set.
type UnsupportedUnitError struct {
	Unit string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported unit: %q", e.Unit)
}

// CanonicalUnit resolves a raw unit spelling to its canonical token.
func CanonicalUnit(raw string) (Unit, bool) {
	u, ok := unitSpellings[raw]
	return u, ok
}

// KnownUnits returns the canonical unit tokens.
func KnownUnits() []Unit {
	return []Unit{UnitMg, UnitG, UnitUg, UnitMl}
}

// ConvertToMg converts value from the given mass unit into mg. Volume values
// are returned unchanged since ml does not take part in mass conversion.
func ConvertToMg(value float64, unit Unit) (float64, error) {
	def, ok := unitTable[unit]
	if !ok {
		return 0, &UnsupportedUnitError{Unit: string(unit)}
	}
	if def.family == familyVolume {
		return value, nil
	}
	return value * def.toMg, nil
}

// NormalizeUnit converts value from one unit into another, pivoting through
// mg. A conversion between the mass and volume families leaves the value
// unchanged: the two families are deliberately non-interoperable.
func NormalizeUnit(value float64, from, to Unit) (float64, error) {
	fromDef, ok := unitTable[from]
	if !ok {
		return 0, &UnsupportedUnitError{Unit: string(from)}
	}
	toDef, ok := unitTable[to]
	if !ok {
		return 0, &UnsupportedUnitError{Unit: string(to)}
	}

	if fromDef.family != toDef.family {
		return value, nil
	}
	if fromDef.family == familyVolume {
		return value, nil
	}

	return value * fromDef.toMg / toDef.toMg, nil
}

// StorageUnit returns the unit a parsed amount is expressed in after
// conversion: mass units collapse to mg, ml passes through.
func StorageUnit(unit Unit) Unit {
	if def, ok := unitTable[unit]; ok && def.family == familyVolume {
		return UnitMl
	}
	return UnitMg
}
