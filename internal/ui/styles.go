package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#0969DA") // blue
	secondaryColor = lipgloss.Color("#8250DF") // purple
	warningColor   = lipgloss.Color("#D29922") // orange
	errorColor     = lipgloss.Color("#CF222E") // red
	textColor      = lipgloss.Color("#FFFFFF")
	dimColor       = lipgloss.Color("#6E7681")
	linkColor      = lipgloss.Color("#58A6FF")
	dateColor      = lipgloss.Color("#A371F7")
	sourceColor    = lipgloss.Color("#FFA657")
)

// Styles is the palette a Printer renders with.
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Text    lipgloss.Style
	Dim     lipgloss.Style
	Link    lipgloss.Style
	Date    lipgloss.Style
	Source  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Card    lipgloss.Style
}

// NewStyles builds the palette around accent, a hex color from config.
func NewStyles(accent string) Styles {
	accentColor := lipgloss.Color(accent)
	if accent == "" {
		accentColor = lipgloss.Color("#2DA44E")
	}

	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor),

		Title: lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true),

		Text: lipgloss.NewStyle().
			Foreground(textColor),

		Dim: lipgloss.NewStyle().
			Foreground(dimColor),

		Link: lipgloss.NewStyle().
			Foreground(linkColor).
			Underline(true),

		Date: lipgloss.NewStyle().
			Foreground(dateColor).
			Italic(true),

		Source: lipgloss.NewStyle().
			Foreground(sourceColor).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		Key: lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true),

		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1),
	}
}
