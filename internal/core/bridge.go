package core

import "strings"

// bridgeRule ties a product-name substring to a physical constant. Rules
// are scanned in order and the first substring match wins, so the slices
// below are ordered, not keyed.
type bridgeRule struct {
	match string
	value float64
}

// Densities in kg per liter, for crossing between volume and mass.
var densityRules = []bridgeRule{
	{"milk", 1.03},
	{"cow milk", 1.03},
	{"oat milk", 1.03},
	{"water", 1.00},
	{"olive oil", 0.91},
}

// Typical retail weight of a single item in kg, for crossing from count
// to mass.
var itemMassRules = []bridgeRule{
	{"lime", 0.067},
	{"mandarin", 0.088},
	{"tangerine", 0.095},
	{"orange", 0.13},
	{"banana", 0.12},
	{"bananas", 0.12},
	{"apple", 0.18},
	{"pear", 0.18},
	{"onion", 0.15},
	{"tomato", 0.12},
	{"potato", 0.21},
	{"lemon", 0.085},
}

func lookupRule(rules []bridgeRule, name string) (float64, bool) {
	n := strings.ToLower(name)
	for _, r := range rules {
		if strings.Contains(n, r.match) {
			return r.value, true
		}
	}
	return 0, false
}

// bridgeVolumeMass converts between volume and mass units through a known
// product density when same-family conversion cannot apply.
func bridgeVolumeMass(name string, qty float64, src, dst Unit) (float64, bool) {
	srcFam, dstFam := FamilyOf(src), FamilyOf(dst)
	if srcFam == dstFam {
		return 0, false
	}
	dens, ok := lookupRule(densityRules, name)
	if !ok {
		return 0, false
	}

	switch {
	case srcFam == FamilyVolume && dstFam == FamilyMass:
		liters, ok := ConvertQty(qty, src, UnitLiter)
		if !ok {
			return 0, false
		}
		return ConvertQty(liters*dens, UnitKg, dst)
	case srcFam == FamilyMass && dstFam == FamilyVolume:
		kg, ok := ConvertQty(qty, src, UnitKg)
		if !ok {
			return 0, false
		}
		return ConvertQty(kg/dens, UnitLiter, dst)
	}
	return 0, false
}

// bridgeCountMass converts an item count into a mass unit using the
// typical single-item weight.
func bridgeCountMass(name string, qty float64, dst Unit) (float64, bool) {
	kgPer, ok := lookupRule(itemMassRules, name)
	if !ok {
		return 0, false
	}
	return ConvertQty(qty*kgPer, UnitKg, dst)
}

// eggQty turns an egg count into a mass quantity at roughly 50 g per egg.
func eggQty(qty float64, dst Unit) (float64, bool) {
	switch dst {
	case UnitKg:
		return qty * 0.05, true
	case UnitLb:
		return qty * 0.05 * 2.2046226, true
	case UnitG:
		return qty * 50.0, true
	case UnitOz:
		return qty * 0.05 * 35.2739619, true
	}
	return 0, false
}

// ResolveQuantity expresses qty, given in unit, in the factor's unit.
// Same-family conversion is tried first, then the count-to-mass bridge,
// then the density bridge, and finally the egg heuristic. It reports
// false when no route exists.
func ResolveQuantity(name string, qty float64, unit, factorUnit Unit) (float64, bool) {
	if v, ok := ConvertQty(qty, unit, factorUnit); ok {
		return v, true
	}
	if FamilyOf(unit) == FamilyCount && FamilyOf(factorUnit) == FamilyMass {
		if v, ok := bridgeCountMass(name, qty, factorUnit); ok {
			return v, true
		}
	}
	if v, ok := bridgeVolumeMass(name, qty, unit, factorUnit); ok {
		return v, true
	}
	if strings.Contains(strings.ToLower(name), "egg") && FamilyOf(factorUnit) == FamilyMass {
		return eggQty(qty, factorUnit)
	}
	return 0, false
}
