package core

import "strings"

// UnitType is the parameter family an emission factor expects.
type UnitType string

const (
	UnitTypeWeight UnitType = "weight"
	UnitTypeVolume UnitType = "volume"
	UnitTypeNumber UnitType = "number"
)

// NormalizeUnitType folds the provider's unit_type vocabulary onto the
// three parameter families the estimate endpoint accepts. Anything else
// passes through lowercased.
func NormalizeUnitType(raw string) UnitType {
	u := strings.ToLower(strings.TrimSpace(raw))
	switch u {
	case "weight", "mass":
		return UnitTypeWeight
	case "volume":
		return UnitTypeVolume
	case "items", "count", "units", "number":
		return UnitTypeNumber
	}
	return UnitType(u)
}

// ParseFactorUnit extracts the measured unit from a factor's unit string,
// such as "kg" from "kgCO2e/kg". The denominator after the last slash is
// taken, synonyms are folded, and anything unrecognized defaults by
// family: kg for weight, liter for volume, each for number.
func ParseFactorUnit(raw string, unitType UnitType) Unit {
	u := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "")
	if idx := strings.LastIndex(u, "/"); idx >= 0 {
		u = u[idx+1:]
	}
	switch u {
	case "item", "items", "each":
		u = "each"
	case "l", "litre", "litres", "liter", "liters":
		u = "liter"
	case "gal", "gals", "gallon", "gallons":
		u = "gallon"
	}

	switch unitType {
	case UnitTypeWeight:
		switch u {
		case "kg", "lb", "g", "oz":
			return Unit(u)
		}
		return UnitKg
	case UnitTypeVolume:
		switch u {
		case "liter", "ml", "gallon":
			return Unit(u)
		}
		return UnitLiter
	case UnitTypeNumber:
		return UnitEach
	}
	// Unit types outside the three families keep their token as-is; the
	// conversion tables reject it later and the item is skipped.
	if u == "" {
		return UnitEach
	}
	return Unit(u)
}

// familyUnitType maps a caller-side unit family onto the factor unit_type
// to prefer in search results.
func familyUnitType(fam UnitFamily) UnitType {
	switch fam {
	case FamilyMass:
		return UnitTypeWeight
	case FamilyVolume:
		return UnitTypeVolume
	}
	return UnitTypeNumber
}
