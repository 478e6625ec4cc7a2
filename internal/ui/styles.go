package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("12")
	mutedColor  = lipgloss.Color("240")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(mutedColor)

	promptStyle = lipgloss.NewStyle().Foreground(accentColor)

	statusStyle = lipgloss.NewStyle().Foreground(mutedColor)
)
