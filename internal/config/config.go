package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/greenbasket/")
	v.AddConfigPath("$HOME/.greenbasket")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("GREENBASKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Climatiq defaults
	v.SetDefault("climatiq.api_key", "")
	v.SetDefault("climatiq.base_url", "https://api.climatiq.io")
	v.SetDefault("climatiq.data_version", "^3")
	v.SetDefault("climatiq.region", "US")
	v.SetDefault("climatiq.timeout", "20s")

	// LLM provider defaults; "none" disables receipt photos, fallback
	// estimates, and encouragement lines
	v.SetDefault("llm.provider", "none")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.top_p", 1.0)
	v.SetDefault("openai.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.top_p", 1.0)
	v.SetDefault("gemini.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 500)
	v.SetDefault("bedrock.temperature", 0.2)
	v.SetDefault("bedrock.top_p", 1.0)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_frequency", "10m")
	v.SetDefault("cache.sqlite_path", "/data/factor_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/greenbasket")

	// Server defaults
	v.SetDefault("server.transport", "webhook")
	v.SetDefault("server.listen_address", "0.0.0.0:8000")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.allowed_senders", []string{})

	// Twilio defaults, used to authenticate MMS media downloads
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.media_timeout", "30s")

	// Mail gateway defaults
	v.SetDefault("gateway.listen_address", "0.0.0.0:2525")
	v.SetDefault("gateway.domain", "localhost")
	v.SetDefault("gateway.relay_address", "")
	v.SetDefault("gateway.from_address", "footprint@localhost")

	// History defaults; an empty DSN disables persistence
	v.SetDefault("history.dsn", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the settings nothing can run without
func (c *Config) Validate() error {
	if c.GetString("climatiq.api_key") == "" {
		return fmt.Errorf("climatiq.api_key is required (set GREENBASKET_CLIMATIQ_API_KEY)")
	}

	switch transport := c.GetString("server.transport"); transport {
	case "webhook", "smtp", "both":
	default:
		return fmt.Errorf("unknown server.transport %q (expected webhook, smtp, or both)", transport)
	}

	switch provider := c.GetString("llm.provider"); provider {
	case "none", "openai", "gemini", "bedrock":
	default:
		return fmt.Errorf("unknown llm.provider %q (expected none, openai, gemini, or bedrock)", provider)
	}

	// Twilio credentials are optional (they only authenticate MMS media
	// downloads), but half a credential pair is always a misconfiguration.
	sid, token := c.GetString("twilio.account_sid"), c.GetString("twilio.auth_token")
	if (sid == "") != (token == "") {
		return fmt.Errorf("twilio.account_sid and twilio.auth_token must be set together")
	}

	return nil
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
