package ports

import (
	"context"

	"github.com/greenbasket/greenbasket/internal/core"
)

// HistoryStore defines the interface for persisting processed queries
type HistoryStore interface {
	// SaveQuery records a processed request
	SaveQuery(ctx context.Context, record *core.QueryRecord) error

	// Recent returns the latest records for one sender, newest first
	Recent(ctx context.Context, phone string, limit int) ([]core.QueryRecord, error)

	// Close releases the underlying connection
	Close() error
}
