package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/ports"
	"github.com/greenbasket/greenbasket/internal/tips"
)

// HelpText is the reply for messages the extractor found no items in.
const HelpText = "Send items like: '2 lb ground beef, 1 gallon milk, 6 eggs' — or attach a receipt photo."

// Report is one processed grocery message, ready to send back
type Report struct {
	ID       string
	From     string
	Summary  *core.BasketSummary
	TipLines []string
	Text     string
	Empty    bool
}

// Builder runs the whole pipeline for one inbound message: extract
// items, canonicalize names, compute the basket, patch holes with the
// AI fallback, attach tips, format the reply and record history.
type Builder struct {
	engine    *core.EstimationService
	extractor *extract.Service
	tips      *tips.Engine
	assistant ports.LLMAssistant
	history   ports.HistoryStore
	logger    *zap.Logger
}

// NewBuilder creates a new report builder. assistant and history may be
// nil; the pipeline then runs without AI fallback and without
// persistence.
func NewBuilder(
	engine *core.EstimationService,
	extractor *extract.Service,
	tipsEngine *tips.Engine,
	assistant ports.LLMAssistant,
	history ports.HistoryStore,
	logger *zap.Logger,
) *Builder {
	return &Builder{
		engine:    engine,
		extractor: extractor,
		tips:      tipsEngine,
		assistant: assistant,
		history:   history,
		logger:    logger,
	}
}

// BuildFromMessage processes one inbound message body plus optional
// receipt photo URL.
func (b *Builder) BuildFromMessage(ctx context.Context, from, mediaURL, body string) *Report {
	items := b.extractor.FromMessage(ctx, mediaURL, body)
	return b.BuildFromItems(ctx, from, items, body)
}

// BuildFromItems processes an already-extracted item list. raw is the
// sender's original text, kept for history.
func (b *Builder) BuildFromItems(ctx context.Context, from string, items []core.Item, raw string) *Report {
	id := uuid.NewString()

	if len(items) == 0 {
		b.logger.Info("No items extracted from message",
			zap.String("report_id", id),
			zap.String("from", from))
		return &Report{ID: id, From: from, Text: HelpText, Empty: true}
	}

	items = catalog.CanonicalItems(items)
	summary := b.engine.ComputeBasket(ctx, items)
	b.fillSkipped(ctx, summary)
	tipLines := b.tips.Lines(ctx, summary)

	rep := &Report{
		ID:       id,
		From:     from,
		Summary:  summary,
		TipLines: tipLines,
		Text:     formatText(summary, tipLines),
	}

	b.saveHistory(ctx, rep, raw)

	b.logger.Info("Built footprint report",
		zap.String("report_id", id),
		zap.String("from", from),
		zap.Int("item_count", len(items)),
		zap.Float64("total_kg_co2e", summary.TotalKgCO2e))

	return rep
}

// fillSkipped asks the AI assistant for a guess on every line the
// engine could not resolve, then recomputes the total. Lines stay
// skipped when the assistant is absent, fails, or abstains.
func (b *Builder) fillSkipped(ctx context.Context, summary *core.BasketSummary) {
	if b.assistant == nil {
		return
	}

	patched := false
	for i := range summary.Lines {
		line := &summary.Lines[i]
		if !line.Skipped {
			continue
		}

		est, err := b.assistant.FallbackEstimate(ctx, line.Item)
		if err != nil {
			b.logger.Warn("AI fallback estimate failed",
				zap.String("name", line.Name),
				zap.Error(err))
			continue
		}
		if est == nil {
			continue
		}

		line.KgCO2e = round3(est.KgCO2e)
		line.Skipped = false
		line.Source = core.SourceFallback
		line.Note = est.Explanation
		patched = true

		b.logger.Debug("Filled skipped line with AI estimate",
			zap.String("name", line.Name),
			zap.Float64("kg_co2e", line.KgCO2e),
			zap.Float64("confidence", est.Confidence))
	}

	if patched {
		total := 0.0
		for _, line := range summary.Lines {
			total += line.KgCO2e
		}
		summary.TotalKgCO2e = round3(total)
	}
}

func (b *Builder) saveHistory(ctx context.Context, rep *Report, raw string) {
	if b.history == nil {
		return
	}

	breakdown, err := json.Marshal(rep.Summary.Lines)
	if err != nil {
		b.logger.Warn("Failed to encode breakdown for history", zap.Error(err))
		return
	}

	record := &core.QueryRecord{
		ID:          rep.ID,
		Phone:       rep.From,
		RawInput:    raw,
		TotalKgCO2e: rep.Summary.TotalKgCO2e,
		Breakdown:   string(breakdown),
		CreatedAt:   time.Now().UTC(),
	}
	if err := b.history.SaveQuery(ctx, record); err != nil {
		b.logger.Warn("Failed to save query history", zap.Error(err))
	}
}

// formatText renders the reply: total, one bullet per item, then tips
func formatText(summary *core.BasketSummary, tipLines []string) string {
	lines := []string{fmt.Sprintf("Total: %v kg CO2e", summary.TotalKgCO2e)}

	for _, line := range summary.Lines {
		switch {
		case line.Skipped:
			lines = append(lines, fmt.Sprintf("• %s: no data", line.Name))
		case line.Source == core.SourceFallback:
			lines = append(lines, fmt.Sprintf("• %s: %v kg (AI estimate)", line.Name, line.KgCO2e))
		default:
			lines = append(lines, fmt.Sprintf("• %s: %v kg", line.Name, line.KgCO2e))
		}
	}

	if len(tipLines) > 0 {
		lines = append(lines, "Tips:\n"+strings.Join(tipLines, "\n"))
	}

	return strings.Join(lines, "\n")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
