package ports

import (
	"context"

	"github.com/greenbasket/greenbasket/internal/core"
)

// LLMAssistant defines the interface for the optional AI helper. Report
// building works without one; a nil assistant simply disables receipt
// photos, fallback guesses and encouragement lines.
type LLMAssistant interface {
	// ReadReceipt extracts grocery items from a receipt image
	ReadReceipt(ctx context.Context, image []byte, mimeType string) ([]core.Item, error)

	// FallbackEstimate guesses a footprint for an item no emission factor covered
	FallbackEstimate(ctx context.Context, item core.Item) (*core.AIEstimate, error)

	// Encouragement writes a one-line nudge to close a report
	Encouragement(ctx context.Context, summary *core.BasketSummary) (string, error)
}
