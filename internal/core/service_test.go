package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type searchCall struct {
	query  string
	region string
}

type fakeProvider struct {
	searchFn   func(query, region string) ([]FactorDoc, error)
	estimateFn func(req EstimateRequest) (*EstimateResponse, error)

	searchCalls   []searchCall
	estimateCalls []EstimateRequest
}

func (f *fakeProvider) Search(_ context.Context, query, region string) ([]FactorDoc, error) {
	f.searchCalls = append(f.searchCalls, searchCall{query: query, region: region})
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(query, region)
}

func (f *fakeProvider) Estimate(_ context.Context, req EstimateRequest) (*EstimateResponse, error) {
	f.estimateCalls = append(f.estimateCalls, req)
	if f.estimateFn == nil {
		return &EstimateResponse{CO2e: 1}, nil
	}
	return f.estimateFn(req)
}

type fakeCache struct {
	entries map[string]*FactorDoc
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*FactorDoc)}
}

func (f *fakeCache) Get(_ context.Context, key string) (*FactorDoc, bool) {
	doc, ok := f.entries[key]
	return doc, ok
}

func (f *fakeCache) Set(_ context.Context, key string, doc *FactorDoc) {
	f.sets++
	f.entries[key] = doc
}

func newTestService(p *fakeProvider, c FactorCache) *EstimationService {
	logger := zap.NewNop()
	search := NewFactorSearch(p, c, logger, "US", "^3")
	return NewEstimationService(search, p, logger, "^3")
}

func beefWeightDoc() FactorDoc {
	return FactorDoc{
		ActivityID: "consumer_goods-type_meat_products_beef",
		Name:       "Beef",
		UnitType:   "Weight",
		Unit:       "kgCO2e/kg",
	}
}

func TestEstimateConvertsToFactorUnit(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
		estimateFn: func(req EstimateRequest) (*EstimateResponse, error) {
			return &EstimateResponse{CO2e: 54.8, Raw: json.RawMessage(`{"co2e":54.8}`)}, nil
		},
	}
	svc := newTestService(p, nil)

	res, err := svc.Estimate(context.Background(), "Ground Beef", 2, UnitLb)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 54.8, res.KgCO2e)
	assert.Equal(t, "consumer_goods-type_meat_products_beef", res.Factor.ActivityID)

	// The hint table rewrites the query before it hits the provider.
	require.Len(t, p.searchCalls, 1)
	assert.Equal(t, "beef", p.searchCalls[0].query)
	assert.Equal(t, "US", p.searchCalls[0].region)

	require.Len(t, p.estimateCalls, 1)
	call := p.estimateCalls[0]
	assert.Equal(t, "consumer_goods-type_meat_products_beef", call.ActivityID)
	assert.Equal(t, "^3", call.DataVersion)
	assert.InDelta(t, 0.90718474, call.Parameters["weight"].(float64), 1e-6)
	assert.Equal(t, "kg", call.Parameters["weight_unit"])
}

func TestEstimateAbsentWhenNothingFound(t *testing.T) {
	p := &fakeProvider{}
	svc := newTestService(p, nil)

	res, err := svc.Estimate(context.Background(), "unobtainium", 1, UnitKg)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Len(t, p.searchCalls, 2)
	assert.Empty(t, p.estimateCalls)
}

func TestEstimateAbsentOnUnitMismatch(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
	}
	svc := newTestService(p, nil)

	// A count of an item with no typical mass cannot reach a weight factor.
	res, err := svc.Estimate(context.Background(), "mystery box", 1, UnitEach)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, p.estimateCalls)
}

func TestEstimateIgnoresNonPositiveQty(t *testing.T) {
	p := &fakeProvider{}
	svc := newTestService(p, nil)

	res, err := svc.Estimate(context.Background(), "beef", 0, UnitKg)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, p.searchCalls)
}

func TestEstimatePropagatesProviderFailure(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
		estimateFn: func(req EstimateRequest) (*EstimateResponse, error) {
			return nil, errors.New("estimate request failed: status 500")
		},
	}
	svc := newTestService(p, nil)

	res, err := svc.Estimate(context.Background(), "beef", 1, UnitKg)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 500")
}

func TestEstimateNumberFactor(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{{ActivityID: "eggs-per-item", UnitType: "Number", Unit: "kgCO2e/item"}}, nil
		},
	}
	svc := newTestService(p, nil)

	res, err := svc.Estimate(context.Background(), "eggs", 6, UnitEach)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, p.estimateCalls, 1)
	params := p.estimateCalls[0].Parameters
	assert.Equal(t, 6.0, params["number"])
	assert.NotContains(t, params, "unit")
	assert.NotContains(t, params, "weight")
}

func TestEstimateBridgesEggsToWeight(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
	}
	svc := newTestService(p, nil)

	res, err := svc.Estimate(context.Background(), "eggs", 6, UnitEach)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, p.estimateCalls, 1)
	params := p.estimateCalls[0].Parameters
	assert.InDelta(t, 0.3, params["weight"].(float64), 1e-9)
	assert.Equal(t, "kg", params["weight_unit"])
}

func TestEstimateGenericParameters(t *testing.T) {
	doc := FactorDoc{ActivityID: "odd-factor", UnitType: "", Unit: "kgCO2e/kg"}
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{doc}, nil
		},
	}
	svc := newTestService(p, nil)

	// A factor without a recognizable unit type only survives via the
	// unscoped raw fallback, and estimates with generic parameters.
	res, err := svc.Estimate(context.Background(), "beef", 2, UnitLb)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, p.searchCalls, 2)

	require.Len(t, p.estimateCalls, 1)
	params := p.estimateCalls[0].Parameters
	assert.InDelta(t, 0.90718474, params["quantity"].(float64), 1e-6)
	assert.Equal(t, "kg", params["unit"])
}

func TestIntensityEstimatesOneFactorUnit(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
		estimateFn: func(req EstimateRequest) (*EstimateResponse, error) {
			return &EstimateResponse{CO2e: 27.0}, nil
		},
	}
	svc := newTestService(p, nil)

	intensity, err := svc.Intensity(context.Background(), "beef", "")
	require.NoError(t, err)
	require.NotNil(t, intensity)
	assert.Equal(t, UnitKg, intensity.Unit)
	assert.Equal(t, 27.0, intensity.KgPerUnit)

	require.Len(t, p.estimateCalls, 1)
	assert.Equal(t, 1.0, p.estimateCalls[0].Parameters["weight"])
}

func TestIntensityHonorsPreferredFamily(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{
				{ActivityID: "milk-volume", UnitType: "Volume", Unit: "kgCO2e/liter"},
				{ActivityID: "milk-weight", UnitType: "Weight", Unit: "kgCO2e/kg"},
			}, nil
		},
	}
	svc := newTestService(p, nil)

	intensity, err := svc.Intensity(context.Background(), "milk", UnitKg)
	require.NoError(t, err)
	require.NotNil(t, intensity)
	assert.Equal(t, UnitKg, intensity.Unit)
}

func TestIntensityAbsentWithoutFactor(t *testing.T) {
	p := &fakeProvider{}
	svc := newTestService(p, nil)

	intensity, err := svc.Intensity(context.Background(), "unobtainium", UnitKg)
	require.NoError(t, err)
	assert.Nil(t, intensity)
}
