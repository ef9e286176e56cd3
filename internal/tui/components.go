package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderPane draws a bordered pane of the given outer size. Content must
// already fit the inner area.
func renderPane(content string, width, height int, focused bool) string {
	if width <= 2 || height <= 2 {
		return ""
	}
	style := PaneStyle
	if focused {
		style = style.BorderForeground(AccentColor)
	}
	return style.
		Width(width - 2).
		Height(height - 2).
		Render(content)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderMuted renders text in muted color (utility wrapper).
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders help/instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}
