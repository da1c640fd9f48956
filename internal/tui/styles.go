// Package tui implements the terminal user interface using Bubbletea.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Jayphen/todoapp/internal/types"
)

// Color palette
var (
	ColorCyan    = lipgloss.Color("86")
	ColorGreen   = lipgloss.Color("78")
	ColorYellow  = lipgloss.Color("221")
	ColorRed     = lipgloss.Color("196")
	ColorMagenta = lipgloss.Color("213")
	ColorBlue    = lipgloss.Color("111")
	ColorGray    = lipgloss.Color("245")
	ColorDimGray = lipgloss.Color("239")
)

// Priority colors: high red, medium yellow, low green.
var PriorityColors = map[types.Priority]lipgloss.Color{
	types.PriorityHigh:   ColorRed,
	types.PriorityMedium: ColorYellow,
	types.PriorityLow:    ColorGreen,
}

// Status pill colors
var StatusColors = map[types.Status]lipgloss.Color{
	types.StatusTodo:       ColorBlue,
	types.StatusInProgress: ColorYellow,
	types.StatusDone:       ColorGreen,
}

// Common styles
var (
	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	// Subtitle/dim text
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	// Dim text style
	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	// Bold text
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// Border box style
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(1, 2)

	// Done task title
	DoneTitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Strikethrough(true)

	// Active filter tab
	ActiveFilterStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true).
				Underline(true)

	// Inactive filter tab
	FilterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Help key style
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Error style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	// Status message style
	StatusMsgStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Warning style
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	// Chat sender styles
	UserStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	BotStyle  = lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true)
)

// Indicators
const (
	IndicatorSelected  = "❯"
	IndicatorChecked   = "[x]"
	IndicatorUnchecked = "[ ]"
	IndicatorPriority  = "⚑"
)

// GetPriorityStyle returns the style for a priority flag.
func GetPriorityStyle(p types.Priority) lipgloss.Style {
	color, ok := PriorityColors[p]
	if !ok {
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color)
}

// GetStatusStyle returns the pill style for a status.
func GetStatusStyle(s types.Status) lipgloss.Style {
	color, ok := StatusColors[s]
	if !ok {
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color)
}
