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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: development
network:
  name: devnet
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "devnet", cfg.Network.Name)
	assert.Equal(t, 30*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, "surfpool", cfg.Validator.Binary)
	assert.Equal(t, []string{"start", "--no-tui", "--debug"}, cfg.Validator.Args)
	assert.Equal(t, 10, cfg.RPC.Throttle.RPS)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ParsesDurations(t *testing.T) {
	path := writeConfig(t, `
environment: production
network:
  name: mainnet
  commitment: finalized
rpc:
  timeout: 5s
  max_retries: 2
  confirm_timeout: 1m
  confirm_interval: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, 2, cfg.RPC.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RPC.ConfirmTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RPC.ConfirmInterval)
	assert.Equal(t, "finalized", cfg.Network.Commitment)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvNetwork, "CUSTOM")
	t.Setenv(EnvRPCURL, "http://10.0.0.1:8899")

	path := writeConfig(t, `
environment: development
network:
  name: devnet
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Network.Name)
	assert.Equal(t, "http://10.0.0.1:8899", cfg.Network.URL)
}

func TestLoad_CustomNetworkRequiresURL(t *testing.T) {
	path := writeConfig(t, `
environment: development
network:
  name: custom
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownNetwork(t *testing.T) {
	path := writeConfig(t, `
environment: development
network:
  name: moonnet
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localnet", cfg.Network.Name)
	assert.Equal(t, Default().Validator, cfg.Validator)
}

func TestLoad_NetworkAuth(t *testing.T) {
	path := writeConfig(t, `
environment: development
network:
  name: custom
  url: https://rpc.example.com
  auth:
    type: query
    key: api-key
    value: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Network.Auth)
	assert.Equal(t, "query", cfg.Network.Auth.Type)

	path = writeConfig(t, `
environment: development
network:
  name: devnet
  auth:
    type: cookie
    key: k
`)
	_, err = Load(path)
	assert.Error(t, err)
}
