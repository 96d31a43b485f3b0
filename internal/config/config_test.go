package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api/v1/webhook", cfg.Server.WebhookPath)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, 100, cfg.Bridge.QueueSize)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: 9000
credentials:
  app_id: app
  app_password: secret
bridge:
  service_id: bridge-1
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "app", cfg.Credentials.AppID)
	assert.Equal(t, "bridge-1", cfg.Bridge.ServiceID)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Observability.LogLevel = "verbose"

	require.Error(t, cfg.Validate())
}

func TestValidateRejectsPartialCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credentials.AppID = "app"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")

	cfg.Credentials.AppPassword = "secret"
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
