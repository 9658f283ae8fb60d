package core

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// ComputeBasket estimates every item and sums the basket footprint. An
// item that fails to resolve, for any reason, becomes a skipped line with
// a zero footprint so one bad line never sinks the whole receipt. The
// total and per-line values are rounded to three decimals.
func (s *EstimationService) ComputeBasket(ctx context.Context, items []Item) *BasketSummary {
	summary := &BasketSummary{Lines: make([]BasketLine, 0, len(items))}
	var total float64

	for _, it := range items {
		res, err := s.Estimate(ctx, it.Name, it.Qty, it.Unit)
		if err != nil {
			s.logger.Warn("Failed to estimate basket item",
				zap.String("name", it.Name),
				zap.Float64("qty", it.Qty),
				zap.String("unit", string(it.Unit)),
				zap.Error(err))
		}
		if res == nil {
			summary.Lines = append(summary.Lines, BasketLine{Item: it, Skipped: true})
			continue
		}

		total += res.KgCO2e
		summary.Lines = append(summary.Lines, BasketLine{
			Item:   it,
			KgCO2e: round3(res.KgCO2e),
			Source: SourceFactor,
			Factor: &res.Factor,
		})
	}

	summary.TotalKgCO2e = round3(total)
	return summary
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
