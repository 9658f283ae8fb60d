package config

import "time"

// ClimatiqConfig represents the configuration for the Climatiq API
type ClimatiqConfig struct {
	APIKey      string
	BaseURL     string
	DataVersion string
	Region      string
	Timeout     time.Duration
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	VisionModel string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// ServerConfig represents the transport configuration
type ServerConfig struct {
	Transport      string
	ListenAddress  string
	RequestTimeout time.Duration
	AllowedSenders []string
}

// TwilioConfig represents the Twilio credentials for media downloads
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	MediaTimeout time.Duration
}

// GatewayConfig represents the mail gateway configuration
type GatewayConfig struct {
	ListenAddress string
	Domain        string
	RelayAddress  string
	FromAddress   string
}

// HistoryConfig represents the query history configuration
type HistoryConfig struct {
	DSN string
}

// GetClimatiq returns the Climatiq configuration
func (c *Config) GetClimatiq() ClimatiqConfig {
	timeout, err := c.GetDuration("climatiq.timeout")
	if err != nil {
		timeout = 20 * time.Second
	}
	return ClimatiqConfig{
		APIKey:      c.GetString("climatiq.api_key"),
		BaseURL:     c.GetString("climatiq.base_url"),
		DataVersion: c.GetString("climatiq.data_version"),
		Region:      c.GetString("climatiq.region"),
		Timeout:     timeout,
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		VisionModel: c.GetString("openai.vision_model"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetServer returns the transport configuration
func (c *Config) GetServer() ServerConfig {
	timeout, err := c.GetDuration("server.request_timeout")
	if err != nil {
		timeout = 60 * time.Second
	}
	return ServerConfig{
		Transport:      c.GetString("server.transport"),
		ListenAddress:  c.GetString("server.listen_address"),
		RequestTimeout: timeout,
		AllowedSenders: c.GetStringSlice("server.allowed_senders"),
	}
}

// GetTwilio returns the Twilio configuration
func (c *Config) GetTwilio() TwilioConfig {
	timeout, err := c.GetDuration("twilio.media_timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return TwilioConfig{
		AccountSID:   c.GetString("twilio.account_sid"),
		AuthToken:    c.GetString("twilio.auth_token"),
		MediaTimeout: timeout,
	}
}

// GetGateway returns the mail gateway configuration
func (c *Config) GetGateway() GatewayConfig {
	return GatewayConfig{
		ListenAddress: c.GetString("gateway.listen_address"),
		Domain:        c.GetString("gateway.domain"),
		RelayAddress:  c.GetString("gateway.relay_address"),
		FromAddress:   c.GetString("gateway.from_address"),
	}
}

// GetHistory returns the query history configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		DSN: c.GetString("history.dsn"),
	}
}
