package core

import "strings"

// queryHints maps item names onto search keywords that the factor
// database actually indexes well. Lookup is exact on the lowercased name.
var queryHints = map[string]string{
	"ground beef":      "beef",
	"beef steak":       "beef",
	"lamb":             "lamb",
	"chicken breast":   "chicken",
	"milk (cow)":       "cow milk",
	"milk":             "cow milk",
	"plant-based milk": "oat milk",
	"oat milk":         "oat milk",
	"yogurt (plain)":   "yogurt",
	"cheese (hard)":    "cheese",
	"tofu":             "tofu",
	"lentils (dry)":    "lentils",
	"beans (dry)":      "beans",
	"rice (white)":     "rice white",
	"bread (loaf)":     "bread",
	"pasta (dry)":      "pasta",
	"apples":           "apples",
	"bananas":          "bananas",
	"mandarins":        "mandarins",
	"lime":             "limes",
	"chocolate":        "chocolate",
	"coffee (roasted)": "coffee beans",
	"bottled water":    "bottled water",
	"tilapia":          "tilapia fillet",
	"salmon":           "salmon fillet",
	"cod":              "cod fillet",
	"tuna":             "tuna (raw)",
	"fish":             "fish fillet",
	"whitefish":        "whitefish fillet",
	"shrimp":           "shrimp (raw)",
}

// QueryHint returns the search keyword for an item name, or the name
// itself when no hint exists.
func QueryHint(name string) string {
	if hint, ok := queryHints[strings.ToLower(strings.TrimSpace(name))]; ok {
		return hint
	}
	return name
}
