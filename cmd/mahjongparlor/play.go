package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/lox/mahjongparlor/cmd/mahjongparlor/shared"
	"github.com/lox/mahjongparlor/internal/client"
	"github.com/lox/mahjongparlor/internal/tui"
)

// PlayCmd connects to a server as an interactive terminal player.
type PlayCmd struct {
	Server   string `default:"http://localhost:8080" help:"Server URL"`
	Name     string `default:"Player" help:"Display name at the table"`
	Room     string `help:"Room code to join"`
	New      bool   `help:"Create a fresh room instead of matchmaking"`
	UUID     string `help:"Reuse an identity to rejoin a game in progress"`
	LogLevel string `default:"warn" help:"Log level (debug|info|warn|error)"`
	LogFile  string `help:"Write logs to this file (recommended, logs fight the TUI)"`
}

func (c *PlayCmd) Run() error {
	logger, logFile, err := shared.SetupLogger(c.LogLevel, c.LogFile)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	playerUUID := c.UUID
	rejoining := playerUUID != ""
	if playerUUID == "" {
		playerUUID = uuid.NewString()
	}

	cl := client.NewClient(c.Server, logger)
	if err := cl.Connect(); err != nil {
		return err
	}
	defer func() { _ = cl.Disconnect() }()

	if err := cl.Ready(playerUUID); err != nil {
		return fmt.Errorf("identify to server: %w", err)
	}

	model := tui.NewModel(cl, c.Name, playerUUID, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	tui.Bind(cl, program)

	if rejoining {
		if err := cl.Rejoin(playerUUID); err != nil {
			return fmt.Errorf("rejoin: %w", err)
		}
	} else {
		if err := cl.EnterGame(c.Name, playerUUID, c.Room, c.New); err != nil {
			return fmt.Errorf("enter game: %w", err)
		}
	}

	// Quit the TUI if the connection drops underneath it
	go func() {
		<-cl.Done()
		program.Send(tea.Quit())
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
