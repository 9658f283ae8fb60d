package core

import "strings"

// Unit is a measurement unit from the closed set the conversion tables
// understand. Raw strings from users or the provider go through
// NormalizeUnit or ParseFactorUnit before they become a Unit.
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitG      Unit = "g"
	UnitLb     Unit = "lb"
	UnitOz     Unit = "oz"
	UnitLiter  Unit = "liter"
	UnitMl     Unit = "ml"
	UnitGallon Unit = "gallon"
	UnitEach   Unit = "each"
)

// UnitFamily groups units that convert directly among themselves
type UnitFamily string

const (
	FamilyMass   UnitFamily = "mass"
	FamilyVolume UnitFamily = "volume"
	FamilyCount  UnitFamily = "count"
	FamilyOther  UnitFamily = "other"
)

// unitAliases maps spellings seen on receipts and in messages onto
// canonical units.
var unitAliases = map[string]Unit{
	"lbs":         UnitLb,
	"pound":       UnitLb,
	"pounds":      UnitLb,
	"kgs":         UnitKg,
	"kilogram":    UnitKg,
	"kilograms":   UnitKg,
	"l":           UnitLiter,
	"litre":       UnitLiter,
	"liters":      UnitLiter,
	"litres":      UnitLiter,
	"milliliter":  UnitMl,
	"milliliters": UnitMl,
	"gal":         UnitGallon,
	"gals":        UnitGallon,
	"gallons":     UnitGallon,
	"item":        UnitEach,
	"items":       UnitEach,
}

var unitFamilies = map[Unit]UnitFamily{
	UnitKg:     FamilyMass,
	UnitG:      FamilyMass,
	UnitLb:     FamilyMass,
	UnitOz:     FamilyMass,
	UnitLiter:  FamilyVolume,
	UnitMl:     FamilyVolume,
	UnitGallon: FamilyVolume,
	UnitEach:   FamilyCount,
}

// Conversion runs through a per-family base unit: lb for mass, liter for
// volume, each for count.
var toBase = map[Unit]float64{
	UnitLb:     1.0,
	UnitKg:     2.2046226218,
	UnitG:      0.0022046226,
	UnitOz:     1.0 / 16.0,
	UnitLiter:  1.0,
	UnitMl:     0.001,
	UnitGallon: 3.78541,
	UnitEach:   1.0,
}

var fromBase = map[Unit]float64{
	UnitLb:     1.0,
	UnitKg:     0.45359237,
	UnitG:      453.59237,
	UnitOz:     16.0,
	UnitLiter:  1.0,
	UnitMl:     1000.0,
	UnitGallon: 1.0 / 3.78541,
	UnitEach:   1.0,
}

// NormalizeUnit lowercases and trims a raw unit string and resolves known
// aliases. Empty or unrecognized input falls back to each.
func NormalizeUnit(raw string) Unit {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return UnitEach
	}
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	unit := Unit(u)
	if _, ok := unitFamilies[unit]; ok {
		return unit
	}
	return UnitEach
}

// KnownUnit reports whether a raw string names a unit from the closed set,
// directly or through an alias.
func KnownUnit(raw string) bool {
	u := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := unitAliases[u]; ok {
		return true
	}
	_, ok := unitFamilies[Unit(u)]
	return ok
}

// FamilyOf classifies a unit. Units outside the closed set are FamilyOther
// and never take part in conversion.
func FamilyOf(u Unit) UnitFamily {
	if fam, ok := unitFamilies[u]; ok {
		return fam
	}
	return FamilyOther
}

// ConvertQty converts a quantity between two units of the same family.
// It reports false when the units do not share a family. Count quantities
// pass through unchanged.
func ConvertQty(qty float64, src, dst Unit) (float64, bool) {
	if src == dst {
		return qty, true
	}
	srcFam := FamilyOf(src)
	if srcFam == FamilyOther || srcFam != FamilyOf(dst) {
		return 0, false
	}
	if srcFam == FamilyCount {
		return qty, true
	}
	return qty * toBase[src] * fromBase[dst], true
}
