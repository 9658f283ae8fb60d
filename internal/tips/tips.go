package tips

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
)

// IntensitySource yields per-unit emission rates, used to quantify swaps
type IntensitySource interface {
	Intensity(ctx context.Context, name string, preferred core.Unit) (*core.Intensity, error)
}

// Encourager writes an optional closing line for a report
type Encourager interface {
	Encouragement(ctx context.Context, summary *core.BasketSummary) (string, error)
}

// Lower-impact stand-ins, scanned top to bottom; the first name match wins.
var alternatives = []struct {
	match string
	alt   string
}{
	{"beef", "chicken breast"},
	{"beef", "lentils (dry)"},
	{"lamb", "chicken breast"},
	{"milk", "oat milk"},
	{"cheese", "yogurt (plain)"},
	{"butter", "olive oil"},
}

// Produce micro-tips keyed by name substring, in priority order.
var microtips = []struct {
	match string
	tip   string
}{
	{"banana", "Bananas are already low-carbon—store at room temp to cut waste."},
	{"mandarin", "Citrus is lower-carbon; buying in-season keeps impacts down."},
	{"lime", "Choose loose citrus over bagged to avoid packaging emissions."},
	{"apple", "Apples store well—buy loose and keep cool to reduce spoilage."},
}

var animalWords = []string{
	"beef", "lamb", "pork", "chicken", "turkey", "fish", "salmon", "tuna",
	"shrimp", "egg", "milk", "cheese", "yogurt", "butter",
}

// Engine produces the Tips section of a report: quantified swap savings
// for the biggest contributors, praise and micro-tips for low-impact
// baskets, and an optional AI encouragement line.
type Engine struct {
	intensity  IntensitySource
	encourager Encourager
	logger     *zap.Logger
}

// NewEngine creates a new tips engine. A nil encourager disables the
// closing line.
func NewEngine(intensity IntensitySource, encourager Encourager, logger *zap.Logger) *Engine {
	return &Engine{
		intensity:  intensity,
		encourager: encourager,
		logger:     logger,
	}
}

// Lines builds the tip lines for a computed basket. It never fails; at
// worst it returns a single generic suggestion.
func (e *Engine) Lines(ctx context.Context, summary *core.BasketSummary) []string {
	var lines []string

	for _, line := range topContributors(summary.Lines, 3) {
		if tip := e.swapLine(ctx, line); tip != "" {
			lines = append(lines, tip)
		}
	}

	names := make([]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		names = append(names, strings.ToLower(line.Name))
	}
	plantOnly := len(names) > 0 && allPlantBased(names)

	// Nothing to swap on a plant-forward or tiny basket: praise instead.
	if len(lines) == 0 && (plantOnly || summary.TotalKgCO2e <= 1.0) {
		lines = append(lines, "Nice — this receipt is low-impact and plant-forward. No swaps needed. 🎉")
		added := 0
		for _, n := range names {
			for _, mt := range microtips {
				if strings.Contains(n, mt.match) {
					lines = append(lines, mt.tip)
					added++
					if added >= 2 {
						break
					}
				}
			}
			if added >= 2 {
				break
			}
		}
	}

	// Reaching here with no lines means an animal-product basket over the
	// praise threshold whose top contributors had no viable swap.
	if len(lines) == 0 {
		lines = []string{"Batch-cook portions to cut leftovers and energy use."}
	}

	if e.encourager != nil {
		extra, err := e.encourager.Encouragement(ctx, summary)
		if err != nil {
			e.logger.Debug("Encouragement line failed", zap.Error(err))
		} else if extra = strings.TrimSpace(extra); extra != "" {
			lines = append(lines, extra)
		}
	}

	return lines
}

// swapLine quantifies what a lower-impact alternative would save for one
// basket line. It returns "" when the line has no alternative, either
// intensity is unknown, units do not line up, or the swap would not help.
func (e *Engine) swapLine(ctx context.Context, line core.BasketLine) string {
	name := strings.ToLower(line.Name)
	if line.Qty <= 0 || line.Unit == "" {
		return ""
	}

	alt := pickAlternative(name)
	if alt == "" {
		return ""
	}

	curr, err := e.intensity.Intensity(ctx, name, line.Unit)
	if err != nil || curr == nil {
		e.logIntensityMiss(name, err)
		return ""
	}
	altRate, err := e.intensity.Intensity(ctx, alt, line.Unit)
	if err != nil || altRate == nil {
		e.logIntensityMiss(alt, err)
		return ""
	}

	qtyCurr, ok := core.ConvertQty(line.Qty, line.Unit, curr.Unit)
	if !ok {
		return ""
	}
	qtyAlt, ok := core.ConvertQty(line.Qty, line.Unit, altRate.Unit)
	if !ok {
		return ""
	}

	savings := qtyCurr*curr.KgPerUnit - qtyAlt*altRate.KgPerUnit
	if savings <= 0 {
		return ""
	}

	return fmt.Sprintf("Swap %s → %s: save ~%v kg CO2e.", name, alt, math.Round(savings*100)/100)
}

func (e *Engine) logIntensityMiss(name string, err error) {
	if err != nil {
		e.logger.Debug("Intensity lookup failed", zap.String("name", name), zap.Error(err))
	}
}

func pickAlternative(name string) string {
	for _, a := range alternatives {
		if strings.Contains(name, a.match) {
			return a.alt
		}
	}
	return ""
}

func allPlantBased(names []string) bool {
	for _, n := range names {
		for _, w := range animalWords {
			if strings.Contains(n, w) {
				return false
			}
		}
	}
	return true
}

func topContributors(lines []core.BasketLine, n int) []core.BasketLine {
	sorted := make([]core.BasketLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].KgCO2e > sorted[j].KgCO2e
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
