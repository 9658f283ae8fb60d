package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FactorSearch selects the best emission factor document for a query. It
// consults the cache first, then searches the provider scoped to the
// configured region, and retries unscoped when the scoped pass finds
// nothing acceptable.
type FactorSearch struct {
	provider    FactorProvider
	cache       FactorCache
	logger      *zap.Logger
	region      string
	dataVersion string
}

// NewFactorSearch creates a new factor search. A nil cache disables
// caching, an empty region disables region scoping.
func NewFactorSearch(
	provider FactorProvider,
	cache FactorCache,
	logger *zap.Logger,
	region string,
	dataVersion string,
) *FactorSearch {
	return &FactorSearch{
		provider:    provider,
		cache:       cache,
		logger:      logger,
		region:      region,
		dataVersion: dataVersion,
	}
}

// Search returns the best factor document for a query, or nil when the
// provider has nothing usable. A family narrows selection to factors
// measured in that family; the empty family means no preference. Queries
// shorter than two characters are rejected without a provider call.
func (s *FactorSearch) Search(ctx context.Context, query string, family UnitFamily) (*FactorDoc, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 2 {
		s.logger.Debug("Skipping search for degenerate query", zap.String("query", query))
		return nil, nil
	}

	key := s.cacheKey(q, family)
	if s.cache != nil {
		if doc, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug("Factor cache hit",
				zap.String("query", q),
				zap.String("activity_id", doc.ActivityID))
			return doc, nil
		}
	}

	results, err := s.provider.Search(ctx, q, s.region)
	if err != nil {
		return nil, fmt.Errorf("failed to search factors: %w", err)
	}
	doc := pickByFamily(results, family)

	// Region scoping can hide food factors entirely, so a miss retries
	// unscoped and takes the first raw result as a last resort.
	if doc == nil {
		unscoped, err := s.provider.Search(ctx, q, "")
		if err != nil {
			return nil, fmt.Errorf("failed to search factors: %w", err)
		}
		doc = pickByFamily(unscoped, family)
		if doc == nil && len(unscoped) > 0 {
			doc = &unscoped[0]
		}
	}

	if doc != nil {
		s.logger.Debug("Selected emission factor",
			zap.String("query", q),
			zap.String("activity_id", doc.ActivityID),
			zap.String("unit_type", doc.UnitType),
			zap.String("unit", doc.Unit))
		if s.cache != nil {
			s.cache.Set(ctx, key, doc)
		}
	}
	return doc, nil
}

func (s *FactorSearch) cacheKey(q string, family UnitFamily) string {
	return fmt.Sprintf("search::%s::%s::%s::%s", q, family, s.region, s.dataVersion)
}

// filterUsable keeps factors measured by weight, volume or number that
// declare a unit, dropping area, money and other non-physical factors.
func filterUsable(docs []FactorDoc) []FactorDoc {
	keep := make([]FactorDoc, 0, len(docs))
	for _, d := range docs {
		switch NormalizeUnitType(d.UnitType) {
		case UnitTypeWeight, UnitTypeVolume, UnitTypeNumber:
			if d.Unit != "" {
				keep = append(keep, d)
			}
		}
	}
	return keep
}

// pickByFamily selects the best usable document for a unit family: an
// exact unit-type match first, then any weight or volume factor, then the
// first usable one. With no family preference the first usable wins.
func pickByFamily(docs []FactorDoc, family UnitFamily) *FactorDoc {
	usable := filterUsable(docs)
	if len(usable) == 0 {
		return nil
	}
	if family == "" {
		return &usable[0]
	}
	want := familyUnitType(family)
	for i := range usable {
		if NormalizeUnitType(usable[i].UnitType) == want {
			return &usable[i]
		}
	}
	for i := range usable {
		switch NormalizeUnitType(usable[i].UnitType) {
		case UnitTypeWeight, UnitTypeVolume:
			return &usable[i]
		}
	}
	return &usable[0]
}
