package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	v := NewEmptyViper()
	v.Set("climatiq.api_key", "test-key")
	return NewFromViper(v)
}

func TestValidateAcceptsDefaultsWithKey(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRequiresClimatiqKey(t *testing.T) {
	err := NewFromViper(NewEmptyViper()).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "climatiq.api_key")
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := validConfig()
	cfg.GetViper().Set("server.transport", "carrier-pigeon")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.transport")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.GetViper().Set("llm.provider", "parrot")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestValidateRejectsPartialTwilioCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.GetViper().Set("twilio.account_sid", "AC123")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twilio")

	cfg.GetViper().Set("twilio.auth_token", "secret")
	assert.NoError(t, cfg.Validate())
}

func TestClimatiqDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	climatiq := cfg.GetClimatiq()

	assert.Equal(t, "https://api.climatiq.io", climatiq.BaseURL)
	assert.Equal(t, "^3", climatiq.DataVersion)
	assert.Equal(t, "US", climatiq.Region)
	assert.Equal(t, 20*time.Second, climatiq.Timeout)
}
