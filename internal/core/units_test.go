package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Unit
	}{
		{name: "canonical passes through", raw: "kg", want: UnitKg},
		{name: "uppercase alias", raw: "LBS", want: UnitLb},
		{name: "padded alias", raw: "  Pounds ", want: UnitLb},
		{name: "single letter liter", raw: "l", want: UnitLiter},
		{name: "british spelling", raw: "litres", want: UnitLiter},
		{name: "gallon shorthand", raw: "gal", want: UnitGallon},
		{name: "items alias", raw: "items", want: UnitEach},
		{name: "kilograms alias", raw: "kilograms", want: UnitKg},
		{name: "empty defaults to each", raw: "", want: UnitEach},
		{name: "unknown defaults to each", raw: "bunch", want: UnitEach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeUnit(tt.raw))
		})
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		unit Unit
		want UnitFamily
	}{
		{UnitKg, FamilyMass},
		{UnitG, FamilyMass},
		{UnitOz, FamilyMass},
		{UnitGallon, FamilyVolume},
		{UnitMl, FamilyVolume},
		{UnitEach, FamilyCount},
		{Unit("m2"), FamilyOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyOf(tt.unit))
		})
	}
}

func TestConvertQty(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
		src  Unit
		dst  Unit
		want float64
		ok   bool
	}{
		{name: "identity", qty: 2.5, src: UnitLb, dst: UnitLb, want: 2.5, ok: true},
		{name: "kg to lb", qty: 1, src: UnitKg, dst: UnitLb, want: 2.2046226218, ok: true},
		{name: "lb to kg", qty: 2, src: UnitLb, dst: UnitKg, want: 0.90718474, ok: true},
		{name: "grams to ounces", qty: 100, src: UnitG, dst: UnitOz, want: 3.5274, ok: true},
		{name: "ml to gallon", qty: 3785.41, src: UnitMl, dst: UnitGallon, want: 1.0, ok: true},
		{name: "gallon to liter", qty: 1, src: UnitGallon, dst: UnitLiter, want: 3.78541, ok: true},
		{name: "count passes through", qty: 6, src: UnitEach, dst: UnitEach, want: 6, ok: true},
		{name: "mass to count unsupported", qty: 5, src: UnitKg, dst: UnitEach, ok: false},
		{name: "volume to mass unsupported", qty: 1, src: UnitLiter, dst: UnitKg, ok: false},
		{name: "unknown unit unsupported", qty: 1, src: Unit("bunch"), dst: UnitKg, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertQty(tt.qty, tt.src, tt.dst)
			if !tt.ok {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestConvertQtyRoundTrip(t *testing.T) {
	kg, ok := ConvertQty(5, UnitLb, UnitKg)
	require.True(t, ok)
	back, ok := ConvertQty(kg, UnitKg, UnitLb)
	require.True(t, ok)
	assert.InDelta(t, 5.0, back, 1e-6)
}
