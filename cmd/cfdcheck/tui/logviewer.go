package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
)

// logPaneHeight is the number of terminal rows the open log pane takes.
const logPaneHeight = 8

// logViewer holds the state for the log pane.
type logViewer struct {
	open   bool
	filter logging.Level
	buffer *logging.LogBuffer
}

// filterEntriesByLevel returns entries at or above the specified level.
func filterEntriesByLevel(entries []logging.LogEntry, minLevel logging.Level) []logging.LogEntry {
	result := make([]logging.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Level >= minLevel {
			result = append(result, e)
		}
	}
	return result
}

// tailEntries returns the last n entries.
func tailEntries(entries []logging.LogEntry, n int) []logging.LogEntry {
	if n <= 0 {
		return nil
	}
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// logLevelStyle returns the style for a log level.
func logLevelStyle(level logging.Level) lipgloss.Style {
	switch level {
	case logging.LevelDebug:
		return logDebugStyle
	case logging.LevelInfo:
		return logInfoStyle
	case logging.LevelWarn:
		return logWarnStyle
	case logging.LevelError:
		return logErrorStyle
	default:
		return logInfoStyle
	}
}

// logLevelChar returns a single character for the log level.
func logLevelChar(level logging.Level) string {
	switch level {
	case logging.LevelDebug:
		return "D"
	case logging.LevelInfo:
		return "I"
	case logging.LevelWarn:
		return "W"
	case logging.LevelError:
		return "E"
	default:
		return "?"
	}
}

// renderLogViewer renders the newest entries that pass the filter.
func renderLogViewer(entries []logging.LogEntry, filter logging.Level, width, height int) string {
	if height < 3 {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf(" Logs [%s] ", filter)
	b.WriteString(titleStyle.Render(title) + mutedTextStyle.Render("[1-4] filter  [L] close"))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n")

	visibleRows := height - 2
	visible := tailEntries(filterEntriesByLevel(entries, filter), visibleRows)
	if len(visible) == 0 {
		b.WriteString(mutedTextStyle.Render("no log entries"))
		b.WriteString("\n")
	}
	for _, entry := range visible {
		b.WriteString(renderLogEntry(entry, width))
		b.WriteString("\n")
	}

	return b.String()
}

// renderLogEntry renders a single log entry.
func renderLogEntry(entry logging.LogEntry, width int) string {
	// HH:MM:SS [L] component: message
	comp := entry.Component
	if len(comp) > 10 {
		comp = comp[:10]
	}

	prefixWidth := 8 + 1 + 3 + 1 + len(comp) + 2
	msgWidth := max(width-prefixWidth, 10)

	msg := entry.Message
	if len(msg) > msgWidth {
		msg = msg[:msgWidth-3] + "..."
	}

	return fmt.Sprintf("%s %s %s: %s",
		logTimeStyle.Render(entry.Time.Format("15:04:05")),
		logLevelStyle(entry.Level).Render("["+logLevelChar(entry.Level)+"]"),
		logComponentStyle.Render(comp),
		msg)
}

// View renders the pane, or nothing when closed.
func (v logViewer) View(width int) string {
	if !v.open {
		return ""
	}
	var entries []logging.LogEntry
	if v.buffer != nil {
		entries = v.buffer.Last(logging.DefaultBufferSize)
	}
	return renderLogViewer(entries, v.filter, width, logPaneHeight)
}
