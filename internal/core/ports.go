package core

import (
	"context"
	"encoding/json"
)

// EstimateRequest carries one estimate call to the factor provider.
// Parameters uses the provider's expected keys for the factor's unit
// type (weight/weight_unit, volume/volume_unit, number, or quantity/unit).
type EstimateRequest struct {
	ActivityID  string
	DataVersion string
	Parameters  map[string]any
}

// EstimateResponse is the provider's answer to an estimate call
type EstimateResponse struct {
	CO2e float64
	Raw  json.RawMessage
}

// FactorProvider defines the interface to the emission factor database
type FactorProvider interface {
	// Search returns candidate factor documents for a query, most
	// relevant first. An empty region disables region scoping.
	Search(ctx context.Context, query, region string) ([]FactorDoc, error)

	// Estimate resolves a quantity against a chosen factor
	Estimate(ctx context.Context, req EstimateRequest) (*EstimateResponse, error)
}

// FactorCache defines the interface for caching selected factor documents.
// Implementations own their TTL and treat internal failures as misses, so
// a broken cache never fails a lookup.
type FactorCache interface {
	// Get retrieves a cached document, reporting false on a miss or an
	// expired entry
	Get(ctx context.Context, key string) (*FactorDoc, bool)

	// Set stores a document under a key
	Set(ctx context.Context, key string, doc *FactorDoc)
}
