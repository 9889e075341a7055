package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://sonicpesa.com", cfg.Gateway.URL)
	assert.Equal(t, "secret", cfg.Gateway.Token)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, 5*time.Second, cfg.Poller.Interval())
	assert.Equal(t, 10, cfg.Poller.MaxAttempts)
	assert.Equal(t, "https://videox.com", cfg.Checkout.RedirectURL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionIdle())
	assert.Equal(t, time.Minute, cfg.Server.SessionSweep())
	assert.Empty(t, cfg.Kafka.Broker.URL)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
gateway:
  url: http://localhost:8085
  token: from-file
poller:
  interval-ms: 250
  max-attempts: 3
checkout:
  redirect-url: https://example.com/thanks
`)
	t.Setenv("POLLER_MAX_ATTEMPTS", "7")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8085", cfg.Gateway.URL)
	assert.Equal(t, "from-file", cfg.Gateway.Token)
	assert.Equal(t, 250*time.Millisecond, cfg.Poller.Interval())
	assert.Equal(t, 7, cfg.Poller.MaxAttempts)
	assert.Equal(t, "https://example.com/thanks", cfg.Checkout.RedirectURL)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.token")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Gateway: Gateway{URL: "http://gw", Token: "t", TimeoutMs: 1000},
		Poller:  Poller{IntervalMs: 1000, MaxAttempts: 10},
		Server:  Server{Port: "8080", SessionIdleMs: 60_000, SessionSweepMs: 1000},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"no url", func(c *Config) { c.Gateway.URL = "" }, "gateway.url"},
		{"zero timeout", func(c *Config) { c.Gateway.TimeoutMs = 0 }, "gateway.timeout-ms"},
		{"zero interval", func(c *Config) { c.Poller.IntervalMs = 0 }, "poller.interval-ms"},
		{"negative attempts", func(c *Config) { c.Poller.MaxAttempts = -1 }, "poller.max-attempts"},
		{"zero session idle", func(c *Config) { c.Server.SessionIdleMs = 0 }, "server.session-idle-ms"},
		{"zero session sweep", func(c *Config) { c.Server.SessionSweepMs = 0 }, "server.session-sweep-ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
