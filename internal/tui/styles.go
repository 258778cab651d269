package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// hasDarkBackground is probed once; the adaptive styles below pick their
// variant from it.
var hasDarkBackground = termenv.HasDarkBackground()

func adaptive(light, dark string) lipgloss.Color {
	if hasDarkBackground {
		return lipgloss.Color(dark)
	}
	return lipgloss.Color(light)
}

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1B7F4A")).
			Bold(true)

	GameLogStyle = lipgloss.NewStyle().
			Foreground(adaptive("#1A1A1A", "#FAFAFA"))

	HandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	TurnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	DiscardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	OpponentStyle = lipgloss.NewStyle().
			Foreground(adaptive("#444444", "#BBBBBB"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)
