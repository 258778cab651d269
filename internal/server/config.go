package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameSettings contains the game rules and timing configuration
type GameSettings struct {
	IncludeBonus    bool   `hcl:"include_bonus,optional"`
	MaxPlayers      int    `hcl:"max_players,optional"`
	ClaimTimeoutMS  int    `hcl:"claim_timeout_ms,optional"`
	WatchdogGraceMS int    `hcl:"watchdog_grace_ms,optional"`
	DisableWatchdog bool   `hcl:"disable_watchdog,optional"`
	AIStrategy      string `hcl:"ai_strategy,optional"`
	Seed            int64  `hcl:"seed,optional"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			Address:  ":8080",
			LogLevel: "info",
		},
		Game: &GameSettings{
			MaxPlayers:      4,
			ClaimTimeoutMS:  5000,
			WatchdogGraceMS: 1000,
			AIStrategy:      "greedy",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Game == nil {
		config.Game = defaults.Game
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if config.Game.ClaimTimeoutMS == 0 {
		config.Game.ClaimTimeoutMS = defaults.Game.ClaimTimeoutMS
	}
	if config.Game.WatchdogGraceMS == 0 {
		config.Game.WatchdogGraceMS = defaults.Game.WatchdogGraceMS
	}
	if config.Game.AIStrategy == "" {
		config.Game.AIStrategy = defaults.Game.AIStrategy
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server == nil || c.Game == nil {
		return fmt.Errorf("server and game blocks are required")
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Game.MaxPlayers < 2 || c.Game.MaxPlayers > 4 {
		return fmt.Errorf("max players must be between 2 and 4, got %d", c.Game.MaxPlayers)
	}
	if c.Game.ClaimTimeoutMS <= 0 {
		return fmt.Errorf("claim timeout must be positive, got %d", c.Game.ClaimTimeoutMS)
	}
	if c.Game.WatchdogGraceMS < 0 {
		return fmt.Errorf("watchdog grace must not be negative, got %d", c.Game.WatchdogGraceMS)
	}

	validStrategies := map[string]bool{
		"greedy": true,
		"pass":   true,
	}
	if !validStrategies[c.Game.AIStrategy] {
		return fmt.Errorf("invalid AI strategy: %s", c.Game.AIStrategy)
	}

	return nil
}
