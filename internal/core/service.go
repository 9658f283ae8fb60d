package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// EstimationService is the core service for grocery footprint estimation.
// It resolves named quantities against provider emission factors and
// converts the caller's units into whatever the chosen factor measures.
type EstimationService struct {
	search      *FactorSearch
	provider    FactorProvider
	logger      *zap.Logger
	dataVersion string
}

// NewEstimationService creates a new estimation service
func NewEstimationService(
	search *FactorSearch,
	provider FactorProvider,
	logger *zap.Logger,
	dataVersion string,
) *EstimationService {
	return &EstimationService{
		search:      search,
		provider:    provider,
		logger:      logger,
		dataVersion: dataVersion,
	}
}

// Estimate resolves the footprint of qty unit of the named item. It
// returns nil without error when no factor matches or no unit route to
// the factor exists; those are expected outcomes the caller can recover
// from. Provider estimate failures are returned as errors.
func (s *EstimationService) Estimate(ctx context.Context, name string, qty float64, unit Unit) (*EstimationResult, error) {
	if qty <= 0 {
		return nil, nil
	}
	unit = NormalizeUnit(string(unit))
	fam := FamilyOf(unit)

	hint := QueryHint(name)
	doc, err := s.search.Search(ctx, hint, fam)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		s.logger.Info("No emission factor found",
			zap.String("name", name),
			zap.String("hint", hint),
			zap.String("family", string(fam)))
		return nil, nil
	}

	unitType := NormalizeUnitType(doc.UnitType)
	factorUnit := ParseFactorUnit(doc.Unit, unitType)

	qtyInFactor, ok := ResolveQuantity(name, qty, unit, factorUnit)
	if !ok {
		s.logger.Info("No unit route to the selected factor",
			zap.String("name", name),
			zap.Float64("qty", qty),
			zap.String("unit", string(unit)),
			zap.String("factor_unit_raw", doc.Unit),
			zap.String("factor_unit", string(factorUnit)),
			zap.String("unit_type", doc.UnitType))
		return nil, nil
	}

	resp, err := s.provider.Estimate(ctx, EstimateRequest{
		ActivityID:  doc.ActivityID,
		DataVersion: s.dataVersion,
		Parameters:  estimateParameters(unitType, qtyInFactor, factorUnit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate %q: %w", name, err)
	}

	s.logger.Debug("Estimated item footprint",
		zap.String("name", name),
		zap.String("activity_id", doc.ActivityID),
		zap.Float64("kg_co2e", resp.CO2e))

	return &EstimationResult{
		KgCO2e: resp.CO2e,
		Factor: *doc,
		Raw:    resp.Raw,
	}, nil
}

// Intensity resolves the per-unit emission rate for a product by
// estimating a single unit of the factor's own measure. A preferred unit
// narrows factor selection to its family; the empty unit means no
// preference. Returns nil when no factor resolves.
func (s *EstimationService) Intensity(ctx context.Context, name string, preferred Unit) (*Intensity, error) {
	var fam UnitFamily
	if preferred != "" {
		fam = FamilyOf(NormalizeUnit(string(preferred)))
	}
	doc, err := s.search.Search(ctx, name, fam)
	if err != nil || doc == nil {
		return nil, err
	}
	unit := ParseFactorUnit(doc.Unit, NormalizeUnitType(doc.UnitType))

	res, err := s.Estimate(ctx, name, 1.0, unit)
	if err != nil || res == nil {
		return nil, err
	}
	return &Intensity{KgPerUnit: res.KgCO2e, Unit: unit}, nil
}

// Search exposes factor selection for diagnostic callers.
func (s *EstimationService) Search(ctx context.Context, query string, family UnitFamily) (*FactorDoc, error) {
	return s.search.Search(ctx, query, family)
}

// estimateParameters shapes the provider call for the factor's unit type
func estimateParameters(unitType UnitType, qty float64, unit Unit) map[string]any {
	switch unitType {
	case UnitTypeWeight:
		return map[string]any{"weight": qty, "weight_unit": string(unit)}
	case UnitTypeVolume:
		return map[string]any{"volume": qty, "volume_unit": string(unit)}
	case UnitTypeNumber:
		return map[string]any{"number": qty}
	}
	return map[string]any{"quantity": qty, "unit": string(unit)}
}
