package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/adapters/gateway"
	"github.com/greenbasket/greenbasket/internal/adapters/webhook"
	"github.com/greenbasket/greenbasket/internal/config"
	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/ports"
	"github.com/greenbasket/greenbasket/internal/report"
	"github.com/greenbasket/greenbasket/internal/whitelist"
)

// TransportFactory creates inbound transports based on configuration
type TransportFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	builder   *report.Builder
	engine    *core.EstimationService
	extractor *extract.Service
	history   ports.HistoryStore
}

// NewTransportFactory creates a new transport factory
func NewTransportFactory(
	cfg *config.Config,
	logger *zap.Logger,
	builder *report.Builder,
	engine *core.EstimationService,
	extractor *extract.Service,
	history ports.HistoryStore,
) *TransportFactory {
	return &TransportFactory{
		cfg:       cfg,
		logger:    logger,
		builder:   builder,
		engine:    engine,
		extractor: extractor,
		history:   history,
	}
}

// CreateTransports creates the configured transports
func (f *TransportFactory) CreateTransports() ([]ports.Transport, error) {
	serverCfg := f.cfg.GetServer()
	checker := whitelist.NewChecker(serverCfg.AllowedSenders, f.logger)

	switch serverCfg.Transport {
	case "webhook":
		return []ports.Transport{f.createWebhook(serverCfg, checker)}, nil
	case "smtp":
		return []ports.Transport{f.createGateway(serverCfg, checker)}, nil
	case "both":
		return []ports.Transport{
			f.createWebhook(serverCfg, checker),
			f.createGateway(serverCfg, checker),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", serverCfg.Transport)
	}
}

func (f *TransportFactory) createWebhook(serverCfg config.ServerConfig, checker *whitelist.Checker) ports.Transport {
	return webhook.NewWebhookTransport(
		f.builder,
		f.engine,
		f.extractor,
		checker,
		f.history,
		f.logger,
		serverCfg.ListenAddress,
		serverCfg.RequestTimeout,
	)
}

func (f *TransportFactory) createGateway(serverCfg config.ServerConfig, checker *whitelist.Checker) ports.Transport {
	gatewayCfg := f.cfg.GetGateway()
	return gateway.NewGatewayTransport(
		f.builder,
		f.extractor,
		checker,
		f.logger,
		gatewayCfg.ListenAddress,
		gatewayCfg.Domain,
		gatewayCfg.RelayAddress,
		gatewayCfg.FromAddress,
		serverCfg.RequestTimeout,
	)
}
