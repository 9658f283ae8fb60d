package core

import (
	"encoding/json"
	"time"
)

// Item represents a single grocery line: a quantity of a named product
type Item struct {
	Name string
	Qty  float64
	Unit Unit
}

// FactorDoc represents one emission factor document from the data provider.
// Raw holds the provider's untouched fields for provenance.
type FactorDoc struct {
	ActivityID string
	Name       string
	Category   string
	Source     string
	Region     string
	Year       int
	UnitType   string
	Unit       string
	Raw        json.RawMessage
}

// EstimationResult represents the resolved footprint for one item quantity
type EstimationResult struct {
	KgCO2e float64
	Factor FactorDoc
	Raw    json.RawMessage
}

// Intensity represents a per-unit emission rate for a product
type Intensity struct {
	KgPerUnit float64
	Unit      Unit
}

// AIEstimate is a model-generated guess, used only after factor resolution
// comes up empty.
type AIEstimate struct {
	KgCO2e      float64
	Explanation string
	Confidence  float64
}

// Footprint sources recorded on basket lines.
const (
	SourceFactor   = "factor"
	SourceFallback = "ai_fallback"
)

// BasketLine represents one basket item with its resolved footprint
type BasketLine struct {
	Item
	KgCO2e  float64
	Skipped bool
	Source  string
	Note    string
	Factor  *FactorDoc
}

// BasketSummary represents the footprint of a whole basket
type BasketSummary struct {
	TotalKgCO2e float64
	Lines       []BasketLine
}

type CacheEntry struct {
	Key       string
	Doc       *FactorDoc
	CreatedAt time.Time
	ExpiresAt time.Time
}

// QueryRecord is one processed request kept for history
type QueryRecord struct {
	ID          string
	Phone       string
	RawInput    string
	TotalKgCO2e float64
	Breakdown   string
	CreatedAt   time.Time
}
