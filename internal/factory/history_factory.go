package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/config"
	"github.com/greenbasket/greenbasket/internal/history"
	"github.com/greenbasket/greenbasket/internal/ports"
)

// HistoryFactory creates query history stores
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryStore creates the query history store. An empty DSN
// disables history, returning nil without error.
func (f *HistoryFactory) CreateHistoryStore() (ports.HistoryStore, error) {
	historyCfg := f.cfg.GetHistory()

	if historyCfg.DSN == "" {
		f.logger.Info("Query history disabled")
		return nil, nil
	}

	store, err := history.NewStore(historyCfg.DSN, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}
	return store, nil
}
