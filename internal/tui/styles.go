package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("36")
	colorDim    = lipgloss.Color("240")
	colorOK     = lipgloss.Color("42")
	colorErr    = lipgloss.Color("160")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorOK)

	errStyle = lipgloss.NewStyle().
			Foreground(colorErr)

	stageStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("236"))
)
