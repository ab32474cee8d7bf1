package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

var (
	// Status colors
	colorOpen    = lipgloss.Color("46")  // green
	colorFull    = lipgloss.Color("196") // red
	colorUnknown = lipgloss.Color("240") // gray

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1).
			MarginBottom(0)

	treeCourseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	counterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func statusIcon(status string) string {
	switch status {
	case "open":
		return "✅"
	case "full":
		return "⛔"
	default:
		return "❓"
	}
}

func statusColor(status string) color.Color {
	switch status {
	case "open":
		return colorOpen
	case "full":
		return colorFull
	default:
		return colorUnknown
	}
}
