package report

import "github.com/charmbracelet/lipgloss"

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	coralPink   = lipgloss.Color("#FFCCCB")
	mintGreen   = lipgloss.Color("#A8E6CF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	textStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	okStyle = lipgloss.NewStyle().
		Foreground(mintGreen).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)
)
