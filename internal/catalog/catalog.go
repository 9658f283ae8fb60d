package catalog

import (
	"strings"

	"github.com/greenbasket/greenbasket/internal/core"
)

// Common retail names folded onto the names emission factor data uses.
var aliases = map[string]string{
	"minced beef": "ground beef",
	"beef mince":  "ground beef",
	"whole milk":  "milk (cow)",
	"2% milk":     "milk (cow)",
}

// CanonicalName maps a retail product name onto its catalog name. Names
// without an alias pass through trimmed and lowercased.
func CanonicalName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[n]; ok {
		return canon
	}
	return n
}

// CanonicalItems rewrites item names onto catalog names. Items without
// a unit count by the piece.
func CanonicalItems(items []core.Item) []core.Item {
	out := make([]core.Item, 0, len(items))
	for _, it := range items {
		unit := it.Unit
		if unit == "" {
			unit = core.UnitEach
		}
		out = append(out, core.Item{
			Name: CanonicalName(it.Name),
			Qty:  it.Qty,
			Unit: unit,
		})
	}
	return out
}
