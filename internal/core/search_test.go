package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSearch(p *fakeProvider, c FactorCache) *FactorSearch {
	return NewFactorSearch(p, c, zap.NewNop(), "US", "^3")
}

func TestSearchSkipsDegenerateQuery(t *testing.T) {
	p := &fakeProvider{}
	s := newTestSearch(p, nil)

	doc, err := s.Search(context.Background(), " s ", FamilyMass)
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Empty(t, p.searchCalls)
}

func TestSearchPrefersExactFamilyMatch(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{
				{ActivityID: "milk-volume", UnitType: "Volume", Unit: "kg/liter"},
				{ActivityID: "milk-weight", UnitType: "Weight", Unit: "kg/kg"},
			}, nil
		},
	}
	s := newTestSearch(p, nil)

	doc, err := s.Search(context.Background(), "milk", FamilyMass)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "milk-weight", doc.ActivityID)
}

func TestSearchFallsBackToMeasurableFactor(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{{ActivityID: "apples-weight", UnitType: "Weight", Unit: "kg/kg"}}, nil
		},
	}
	s := newTestSearch(p, nil)

	// No number factor exists for a count query, so any weight or volume
	// factor is accepted instead.
	doc, err := s.Search(context.Background(), "apples", FamilyCount)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "apples-weight", doc.ActivityID)
}

func TestSearchFiltersNonPhysicalFactors(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{
				{ActivityID: "beef-spend", UnitType: "Money", Unit: "kg/eur"},
				{ActivityID: "beef-weight", UnitType: "Weight", Unit: "kg/kg"},
			}, nil
		},
	}
	s := newTestSearch(p, nil)

	doc, err := s.Search(context.Background(), "beef", "")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "beef-weight", doc.ActivityID)
}

func TestSearchRetriesWithoutRegion(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			if region != "" {
				return nil, nil
			}
			return []FactorDoc{beefWeightDoc()}, nil
		},
	}
	s := newTestSearch(p, nil)

	doc, err := s.Search(context.Background(), "beef", FamilyMass)
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.Len(t, p.searchCalls, 2)
	assert.Equal(t, "US", p.searchCalls[0].region)
	assert.Equal(t, "", p.searchCalls[1].region)
}

func TestSearchRawFallbackAsLastResort(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{{ActivityID: "beef-spend", UnitType: "Money", Unit: "kg/eur"}}, nil
		},
	}
	s := newTestSearch(p, nil)

	// Nothing usable in either pass: the unscoped pass still surrenders
	// its first raw result rather than nothing.
	doc, err := s.Search(context.Background(), "beef", FamilyMass)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "beef-spend", doc.ActivityID)
	assert.Len(t, p.searchCalls, 2)
}

func TestSearchCachesSelection(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
	}
	c := newFakeCache()
	s := newTestSearch(p, c)

	first, err := s.Search(context.Background(), "beef", FamilyMass)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, c.sets)

	second, err := s.Search(context.Background(), "beef", FamilyMass)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Len(t, p.searchCalls, 1)
	assert.Equal(t, first.ActivityID, second.ActivityID)
}

func TestSearchDoesNotCacheMisses(t *testing.T) {
	p := &fakeProvider{}
	c := newFakeCache()
	s := newTestSearch(p, c)

	doc, err := s.Search(context.Background(), "unobtainium", FamilyMass)
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Zero(t, c.sets)

	// The next identical query hits the provider again.
	_, err = s.Search(context.Background(), "unobtainium", FamilyMass)
	require.NoError(t, err)
	assert.Len(t, p.searchCalls, 4)
}

func TestSearchCacheKeyShape(t *testing.T) {
	s := newTestSearch(&fakeProvider{}, nil)
	assert.Equal(t, "search::beef::mass::US::^3", s.cacheKey("beef", FamilyMass))
	assert.Equal(t, "search::beef::::US::^3", s.cacheKey("beef", ""))
}
