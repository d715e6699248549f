package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the table and its panes.
const (
	colorText   = lipgloss.Color("#FAFAFA")
	colorAccent = lipgloss.Color("#7D56F4")
	colorGreen  = lipgloss.Color("#96CEB4")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorYellow = lipgloss.Color("#FFEAA7")
	colorGold   = lipgloss.Color("#FFD700")
	colorMuted  = lipgloss.Color("#626262")
)

// Layout
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorAccent).
			Padding(0, 1).
			Bold(true)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	GameLogStyle = lipgloss.NewStyle().Foreground(colorText)
	ActionsStyle = lipgloss.NewStyle().Foreground(colorGold).Bold(true)
)

// Cards. Hearts and diamonds are red; dealer cards face down are muted.
var (
	RedCardStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	BlackCardStyle  = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	HiddenCardStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Status text: wins, losses, ties and hints.
var (
	HandInfoStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	SuccessStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	WarningStyle  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	InfoStyle     = lipgloss.NewStyle().Foreground(colorMuted)
)
