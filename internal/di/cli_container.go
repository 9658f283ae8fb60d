package di

import (
	"flag"
	"os"

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

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Emission factor provider flags
	ClimatiqAPIKey string
	Region         string
	DataVersion    string

	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Input flags
	Items      string
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Emission factor provider flags
	flag.StringVar(&flags.ClimatiqAPIKey, "climatiq-api-key", os.Getenv("GREENBASKET_CLIMATIQ_API_KEY"), "API key for Climatiq")
	flag.StringVar(&flags.Region, "region", "US", "Region hint for emission factor search")
	flag.StringVar(&flags.DataVersion, "data-version", "^3", "Climatiq data version")

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "none", "LLM provider (none, openai, gemini, bedrock)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 500, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.2, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 1.0, "Top-p for LLM generation")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")

	// Input flags
	flag.StringVar(&flags.Items, "items", "", "Grocery list, e.g. \"2 lb beef, 1 gallon milk\"")
	flag.StringVar(&flags.InputFile, "file", "", "Input file with one item per line (use stdin if neither -items nor -file is given)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewProviderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
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

	// Register AI assistant
	if err := container.Provide(func(f *factory.LLMFactory) (ports.LLMAssistant, error) {
		return f.CreateAssistant()
	}); err != nil {
		return nil, err
	}

	// Register factor search with no cache
	if err := container.Provide(func(
		cfg *config.Config,
		provider core.FactorProvider,
		logger *zap.Logger,
	) *core.FactorSearch {
		climatiqCfg := cfg.GetClimatiq()
		return core.NewFactorSearch(provider, nil, logger, climatiqCfg.Region, climatiqCfg.DataVersion)
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

	// Register item extractor with no media fetcher
	if err := container.Provide(func(
		assistant ports.LLMAssistant,
		text *utils.TextProcessor,
		logger *zap.Logger,
	) *extract.Service {
		var reader extract.ReceiptReader
		if assistant != nil {
			reader = assistant
		}
		return extract.NewService(reader, nil, text, logger)
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

	// Register report builder with no history store
	if err := container.Provide(func(
		engine *core.EstimationService,
		extractor *extract.Service,
		tipsEngine *tips.Engine,
		assistant ports.LLMAssistant,
		logger *zap.Logger,
	) *report.Builder {
		return report.NewBuilder(engine, extractor, tipsEngine, assistant, nil, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cache.enabled", false)
	v.Set("history.dsn", "")

	// Set emission factor provider configuration
	v.Set("climatiq.api_key", flags.ClimatiqAPIKey)
	v.Set("climatiq.region", flags.Region)
	v.Set("climatiq.data_version", flags.DataVersion)

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	return config.NewFromViper(v)
}
