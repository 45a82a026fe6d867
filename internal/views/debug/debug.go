// Package debug provides a scrollable event log overlay fed by the
// session controller and the daemon log stream.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/cato-helper/console/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 200

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string // "login", "logout", "status", "poll", "guard", "ws", ...
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
	Width   int
	Height  int
}

// New creates an empty debug model.
func New() Model {
	return Model{}
}

// Add appends a log entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	// Reset scroll to bottom on new entry.
	m.Offset = 0
}

// AddAt appends an entry carrying its own timestamp (daemon log lines).
func (m *Model) AddAt(t time.Time, kind, message string) {
	m.Entries = append(m.Entries, Entry{Time: t, Kind: kind, Message: message})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset += n
	max := len(m.Entries) - 1
	if max < 0 {
		max = 0
	}
	if m.Offset > max {
		m.Offset = max
	}
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

// View renders the visible window of the log.
func (m Model) View() string {
	height := m.Height
	if height < 5 {
		height = 5
	}
	visible := height - 2

	var lines []string
	lines = append(lines, theme.StyleHeader.Render("Event log"))

	if len(m.Entries) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no events yet"))
	} else {
		end := len(m.Entries) - m.Offset
		if end < 1 {
			end = 1
		}
		start := end - visible
		if start < 0 {
			start = 0
		}
		for _, e := range m.Entries[start:end] {
			ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
			kind := lipgloss.NewStyle().Foreground(theme.ColorAccent).Render(fmt.Sprintf("%-7s", e.Kind))
			lines = append(lines, fmt.Sprintf("  %s %s %s", ts, kind, e.Message))
		}
	}

	return strings.Join(lines, "\n")
}
