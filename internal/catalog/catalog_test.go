package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenbasket/greenbasket/internal/core"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"minced beef", "ground beef"},
		{"Beef Mince", "ground beef"},
		{"  Whole Milk ", "milk (cow)"},
		{"2% milk", "milk (cow)"},
		{"bananas", "bananas"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalName(tt.in), tt.in)
	}
}

func TestCanonicalItems(t *testing.T) {
	items := CanonicalItems([]core.Item{
		{Name: "Minced Beef", Qty: 2, Unit: core.UnitLb},
		{Name: "bananas", Qty: 3},
	})

	assert.Equal(t, []core.Item{
		{Name: "ground beef", Qty: 2, Unit: core.UnitLb},
		{Name: "bananas", Qty: 3, Unit: core.UnitEach},
	}, items)
}
