package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 9876, cfg.Daemon.WebhookPort)
	assert.Equal(t, SocketPath(), cfg.Daemon.SocketPath)
	assert.Equal(t, "info", cfg.Daemon.LogLevel)
	assert.Equal(t, "http://localhost:2019", cfg.Proxy.AdminAPI)
	assert.False(t, cfg.Cloudflare.Enabled)
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, 9876, cfg.Daemon.WebhookPort)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.GitHub.APIToken = "tok_123"
	cfg.Cloudflare.Enabled = true
	cfg.Cloudflare.TunnelToken = "cf_456"
	cfg.Daemon.WebhookPort = 9999
	cfg.Daemon.LogLevel = "debug"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.GitHub.APIToken, loaded.GitHub.APIToken)
	assert.Equal(t, cfg.Cloudflare.Enabled, loaded.Cloudflare.Enabled)
	assert.Equal(t, cfg.Cloudflare.TunnelToken, loaded.Cloudflare.TunnelToken)
	assert.Equal(t, cfg.Daemon.WebhookPort, loaded.Daemon.WebhookPort)
	assert.Equal(t, cfg.Daemon.LogLevel, loaded.Daemon.LogLevel)
}

func TestLoadFromPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[github]\napi_token = \"abc\"\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.GitHub.APIToken)
	assert.Equal(t, 9876, cfg.Daemon.WebhookPort)
}

func TestLoadFromMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := LoadFrom(path)
	require.Error(t, err)
}
