package cli

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(colorSubtext0)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorOverlay1)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	amountStyle  = lipgloss.NewStyle().Foreground(colorPeach)
	cursorStyle  = lipgloss.NewStyle().Background(colorSurface1).Foreground(colorText).Bold(true)
	rowTextStyle = lipgloss.NewStyle().Foreground(colorText)
)
