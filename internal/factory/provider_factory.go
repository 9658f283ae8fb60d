package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/adapters/climatiq"
	"github.com/greenbasket/greenbasket/internal/config"
	"github.com/greenbasket/greenbasket/internal/core"
)

// ProviderFactory creates emission factor providers
type ProviderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFactorProvider creates the Climatiq-backed factor provider
func (f *ProviderFactory) CreateFactorProvider() (core.FactorProvider, error) {
	climatiqCfg := f.cfg.GetClimatiq()

	if climatiqCfg.APIKey == "" {
		return nil, fmt.Errorf("climatiq API key is required")
	}

	return climatiq.NewClient(
		climatiqCfg.BaseURL,
		climatiqCfg.APIKey,
		climatiqCfg.DataVersion,
		climatiqCfg.Timeout,
		f.logger,
	), nil
}
