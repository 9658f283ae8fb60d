package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/config"
	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/factory"
	"github.com/greenbasket/greenbasket/internal/logging"
	"github.com/greenbasket/greenbasket/internal/ports"
	"github.com/greenbasket/greenbasket/internal/report"
	"github.com/greenbasket/greenbasket/internal/tips"
	"github.com/greenbasket/greenbasket/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewProviderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTransportFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register emission factor provider
	if err := container.Provide(func(f *factory.ProviderFactory) (core.FactorProvider, error) {
		return f.CreateFactorProvider()
	}); err != nil {
		return nil, err
	}

	// Register factor cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.FactorCache, error) {
		return f.CreateFactorCache()
	}); err != nil {
		return nil, err
	}

	// Register AI assistant
	if err := container.Provide(func(f *factory.LLMFactory) (ports.LLMAssistant, error) {
		return f.CreateAssistant()
	}); err != nil {
		return nil, err
	}

	// Register query history store
	if err := container.Provide(func(f *factory.HistoryFactory) (ports.HistoryStore, error) {
		return f.CreateHistoryStore()
	}); err != nil {
		return nil, err
	}

	// Register factor search
	if err := container.Provide(func(
		cfg *config.Config,
		provider core.FactorProvider,
		cache core.FactorCache,
		logger *zap.Logger,
	) *core.FactorSearch {
		climatiqCfg := cfg.GetClimatiq()
		return core.NewFactorSearch(provider, cache, logger, climatiqCfg.Region, climatiqCfg.DataVersion)
	}); err != nil {
		return nil, err
	}

	// Register estimation service
	if err := container.Provide(func(
		cfg *config.Config,
		search *core.FactorSearch,
		provider core.FactorProvider,
		logger *zap.Logger,
	) *core.EstimationService {
		return core.NewEstimationService(search, provider, logger, cfg.GetClimatiq().DataVersion)
	}); err != nil {
		return nil, err
	}

	// Register media fetcher
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *extract.MediaFetcher {
		twilioCfg := cfg.GetTwilio()
		return extract.NewMediaFetcher(twilioCfg.AccountSID, twilioCfg.AuthToken, twilioCfg.MediaTimeout, logger)
	}); err != nil {
		return nil, err
	}

	// Register item extractor
	if err := container.Provide(func(
		assistant ports.LLMAssistant,
		fetcher *extract.MediaFetcher,
		text *utils.TextProcessor,
		logger *zap.Logger,
	) *extract.Service {
		var reader extract.ReceiptReader
		if assistant != nil {
			reader = assistant
		}
		return extract.NewService(reader, fetcher, text, logger)
	}); err != nil {
		return nil, err
	}

	// Register tips engine
	if err := container.Provide(func(
		engine *core.EstimationService,
		assistant ports.LLMAssistant,
		logger *zap.Logger,
	) *tips.Engine {
		var encourager tips.Encourager
		if assistant != nil {
			encourager = assistant
		}
		return tips.NewEngine(engine, encourager, logger)
	}); err != nil {
		return nil, err
	}

	// Register report builder
	if err := container.Provide(report.NewBuilder); err != nil {
		return nil, err
	}

	// Register transports
	if err := container.Provide(func(f *factory.TransportFactory) ([]ports.Transport, error) {
		return f.CreateTransports()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
