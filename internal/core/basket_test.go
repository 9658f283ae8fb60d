package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBasketSumsAndSkips(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			if query == "beef" {
				return []FactorDoc{beefWeightDoc()}, nil
			}
			return nil, nil
		},
		estimateFn: func(req EstimateRequest) (*EstimateResponse, error) {
			return &EstimateResponse{CO2e: 10.5}, nil
		},
	}
	svc := newTestService(p, nil)

	summary := svc.ComputeBasket(context.Background(), []Item{
		{Name: "ground beef", Qty: 1, Unit: UnitKg},
		{Name: "unobtainium", Qty: 1, Unit: UnitKg},
	})

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, 10.5, summary.TotalKgCO2e)

	assert.Equal(t, 10.5, summary.Lines[0].KgCO2e)
	assert.Equal(t, SourceFactor, summary.Lines[0].Source)
	assert.False(t, summary.Lines[0].Skipped)
	require.NotNil(t, summary.Lines[0].Factor)

	assert.True(t, summary.Lines[1].Skipped)
	assert.Zero(t, summary.Lines[1].KgCO2e)
	assert.Nil(t, summary.Lines[1].Factor)
}

func TestComputeBasketRoundsToThreeDecimals(t *testing.T) {
	co2e := []float64{1.23456, 2.34567}
	var call int
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
		estimateFn: func(req EstimateRequest) (*EstimateResponse, error) {
			v := co2e[call]
			call++
			return &EstimateResponse{CO2e: v}, nil
		},
	}
	svc := newTestService(p, nil)

	summary := svc.ComputeBasket(context.Background(), []Item{
		{Name: "beef", Qty: 1, Unit: UnitKg},
		{Name: "lamb", Qty: 1, Unit: UnitKg},
	})

	assert.Equal(t, 1.235, summary.Lines[0].KgCO2e)
	assert.Equal(t, 2.346, summary.Lines[1].KgCO2e)
	assert.Equal(t, 3.58, summary.TotalKgCO2e)
}

func TestComputeBasketSurvivesHardFailures(t *testing.T) {
	p := &fakeProvider{
		searchFn: func(query, region string) ([]FactorDoc, error) {
			return []FactorDoc{beefWeightDoc()}, nil
		},
		estimateFn: func(req EstimateRequest) (*EstimateResponse, error) {
			return nil, errors.New("estimate request failed: status 500")
		},
	}
	svc := newTestService(p, nil)

	summary := svc.ComputeBasket(context.Background(), []Item{
		{Name: "beef", Qty: 1, Unit: UnitKg},
	})

	require.Len(t, summary.Lines, 1)
	assert.True(t, summary.Lines[0].Skipped)
	assert.Zero(t, summary.TotalKgCO2e)
}
