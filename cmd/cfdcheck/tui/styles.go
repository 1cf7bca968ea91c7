// Package tui provides the interactive what-if explorer for cfdcheck.
// It uses Charmbracelet's Bubble Tea, Lip Gloss, and Bubbles.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/output"
)

// Text styles. The palette is shared with the pretty formatter.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(output.ColorPrimary)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(output.ColorMuted)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(output.ColorDanger)

	successTextStyle = lipgloss.NewStyle().
				Foreground(output.ColorSuccess)

	warningTextStyle = lipgloss.NewStyle().
				Foreground(output.ColorWarning)

	// changedStyle marks profile fields that differ from the starting profile.
	changedStyle = lipgloss.NewStyle().
			Foreground(output.ColorWarning).
			Bold(true)
)

// Box styles for containers.
var (
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(output.ColorPrimary).
			Padding(0, 1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

// Log viewer styles.
var (
	logTimeStyle      = lipgloss.NewStyle().Foreground(output.ColorMuted)
	logComponentStyle = lipgloss.NewStyle().Foreground(output.ColorPrimary)
	logDebugStyle     = lipgloss.NewStyle().Foreground(output.ColorMuted)
	logInfoStyle      = lipgloss.NewStyle().Foreground(output.ColorSuccess)
	logWarnStyle      = lipgloss.NewStyle().Foreground(output.ColorWarning)
	logErrorStyle     = lipgloss.NewStyle().Foreground(output.ColorDanger)
)

// renderDivider renders a horizontal rule of the given width.
func renderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	line := make([]rune, width)
	for i := range line {
		line[i] = '─'
	}
	return dividerStyle.Render(string(line))
}
