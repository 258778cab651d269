package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 5000, cfg.Game.ClaimTimeoutMS)
	assert.Equal(t, 1000, cfg.Game.WatchdogGraceMS)
	assert.Equal(t, "greedy", cfg.Game.AIStrategy)
	assert.False(t, cfg.Game.IncludeBonus)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigParsesHCL(t *testing.T) {
	path := writeConfig(t, `
server {
  address   = ":9090"
  log_level = "debug"
}

game {
  include_bonus    = true
  max_players      = 3
  claim_timeout_ms = 3000
  ai_strategy      = "pass"
  seed             = 42
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Game.IncludeBonus)
	assert.Equal(t, 3, cfg.Game.MaxPlayers)
	assert.Equal(t, 3000, cfg.Game.ClaimTimeoutMS)
	assert.Equal(t, "pass", cfg.Game.AIStrategy)
	assert.Equal(t, int64(42), cfg.Game.Seed)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFillsMissingValues(t *testing.T) {
	path := writeConfig(t, `
server {
  address = ":7000"
}

game {
  max_players = 2
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 2, cfg.Game.MaxPlayers)
	assert.Equal(t, 5000, cfg.Game.ClaimTimeoutMS)
	assert.Equal(t, "greedy", cfg.Game.AIStrategy)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	path := writeConfig(t, `server { address = `)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "too few players",
			mutate:  func(c *Config) { c.Game.MaxPlayers = 1 },
			wantErr: "max players",
		},
		{
			name:    "too many players",
			mutate:  func(c *Config) { c.Game.MaxPlayers = 5 },
			wantErr: "max players",
		},
		{
			name:    "zero claim timeout",
			mutate:  func(c *Config) { c.Game.ClaimTimeoutMS = 0 },
			wantErr: "claim timeout",
		},
		{
			name:    "negative grace",
			mutate:  func(c *Config) { c.Game.WatchdogGraceMS = -1 },
			wantErr: "watchdog grace",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Game.AIStrategy = "aggressive" },
			wantErr: "invalid AI strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
