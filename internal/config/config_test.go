package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 8081, cfg.RPCPort)
	assert.Equal(t, "http://localhost:9000", cfg.UpstreamURL)
	assert.Empty(t, cfg.PublishURL)
	assert.Equal(t, 15*time.Second, cfg.PollTimeout)
	assert.Equal(t, 55*time.Second, cfg.MaxPollTimeout)
	assert.Equal(t, 30*time.Second, cfg.StartTimeout)
	assert.Equal(t, time.Hour, cfg.StreamTimeout)
	assert.Equal(t, 10*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 12, cfg.MaxAgents)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("UPSTREAM_URL", "https://debates.example")
	t.Setenv("POLL_TIMEOUT_MS", "2000")
	t.Setenv("MAX_AGENTS", "6")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "https://debates.example", cfg.UpstreamURL)
	assert.Equal(t, 2*time.Second, cfg.PollTimeout)
	assert.Equal(t, 6, cfg.MaxAgents)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	content := "PUBLISH_URL: https://share.example\nMAX_AGENTS: 8\nRPC_PORT: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_AGENTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://share.example", cfg.PublishURL)
	assert.Equal(t, 0, cfg.RPCPort)
	assert.Equal(t, 5, cfg.MaxAgents, "environment wins over file")
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("POLL_TIMEOUT_MS", "60000")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_TIMEOUT_MS exceeds MAX_POLL_TIMEOUT_MS")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
