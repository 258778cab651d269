package main

import (
	"github.com/coder/quartz"
	"github.com/lox/mahjongparlor/cmd/mahjongparlor/shared"
	"github.com/lox/mahjongparlor/internal/server"
)

// ServeCmd runs the mahjong server. Environment bindings follow the
// deployment contract: INCLUDE_BONUS, MAX_PLAYERS_PER_GAME and
// CLAIM_TIMEOUT_MS override the config file; flags override both.
type ServeCmd struct {
	Config       string `default:"mahjongparlor.hcl" help:"HCL config file (defaults used when missing)"`
	Addr         string `help:"Listen address, e.g. :8080 (overrides config)"`
	LogLevel     string `help:"Log level (debug|info|warn|error), overrides config"`
	LogFile      string `help:"Also write logs to this file"`
	IncludeBonus bool   `env:"INCLUDE_BONUS" help:"Include flower and season tiles in the wall"`
	MaxPlayers   int    `env:"MAX_PLAYERS_PER_GAME" help:"Seats per room (overrides config)"`
	ClaimTimeout int    `env:"CLAIM_TIMEOUT_MS" help:"Claim window countdown in ms (overrides config)"`
	Seed         int64  `help:"Deterministic RNG seed for demos and debugging"`
	NoWatchdog   bool   `help:"Disable the server-side claim watchdog"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	// Flags and environment override the file
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Server.LogFile = c.LogFile
	}
	if c.IncludeBonus {
		cfg.Game.IncludeBonus = true
	}
	if c.MaxPlayers != 0 {
		cfg.Game.MaxPlayers = c.MaxPlayers
	}
	if c.ClaimTimeout != 0 {
		cfg.Game.ClaimTimeoutMS = c.ClaimTimeout
	}
	if c.Seed != 0 {
		cfg.Game.Seed = c.Seed
	}
	if c.NoWatchdog {
		cfg.Game.DisableWatchdog = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logFile, err := shared.SetupLogger(cfg.Server.LogLevel, cfg.Server.LogFile)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	srv := server.NewServer(cfg.Server.Address, logger)
	service := server.NewRoomService(srv, cfg.Game, quartz.NewReal(), logger)
	srv.SetRoomService(service)

	ctx := shared.SetupSignalHandler(logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		service.Stop()
		return err
	case <-ctx.Done():
		service.Stop()
		return srv.Stop()
	}
}
