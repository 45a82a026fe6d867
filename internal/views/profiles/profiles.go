// Package profiles renders the login profile selector: a cursor list
// with a leading placeholder entry, disabled while logged in or after a
// failed load.
package profiles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cato-helper/console/internal/client"
	"github.com/cato-helper/console/internal/theme"
)

const placeholder = "(select a profile)"

// Model holds the selector state.
type Model struct {
	// entries[0] is always the empty placeholder; Selected returns ""
	// while the cursor sits on it.
	entries    []string
	cursor     int
	loadFailed bool

	// Disabled freezes selection while logged in; FixedLabel is shown
	// instead of the list.
	Disabled   bool
	FixedLabel string

	Width int
}

// New creates an empty selector (placeholder only).
func New() Model {
	return Model{entries: []string{""}}
}

// SetProfiles replaces the list, resetting the cursor to the
// placeholder. preselect, when present in the list, moves the cursor to
// it (the persisted profile from a previous run).
func (m *Model) SetProfiles(profiles []client.Profile, preselect string) {
	m.entries = make([]string, 0, len(profiles)+1)
	m.entries = append(m.entries, "")
	m.cursor = 0
	m.loadFailed = false
	for _, p := range profiles {
		m.entries = append(m.entries, p.Name)
		if preselect != "" && p.Name == preselect {
			m.cursor = len(m.entries) - 1
		}
	}
}

// SetLoadFailed replaces the list with a single disabled failure entry.
func (m *Model) SetLoadFailed() {
	m.entries = []string{""}
	m.cursor = 0
	m.loadFailed = true
}

// LoadFailed reports whether the last load failed.
func (m Model) LoadFailed() bool { return m.loadFailed }

// MoveDown advances the cursor.
func (m *Model) MoveDown() {
	if m.Disabled || m.loadFailed {
		return
	}
	if len(m.entries) > 0 {
		m.cursor = (m.cursor + 1) % len(m.entries)
	}
}

// MoveUp moves the cursor back.
func (m *Model) MoveUp() {
	if m.Disabled || m.loadFailed {
		return
	}
	if len(m.entries) > 0 {
		m.cursor = (m.cursor - 1 + len(m.entries)) % len(m.entries)
	}
}

// Selected returns the profile under the cursor, "" for the
// placeholder, failure entry or a disabled list.
func (m Model) Selected() string {
	if m.loadFailed || m.cursor <= 0 || m.cursor >= len(m.entries) {
		return ""
	}
	return m.entries[m.cursor]
}

// View renders the selector.
func (m Model) View() string {
	header := theme.StyleHeader.Render("Login profile")

	if m.Disabled {
		label := m.FixedLabel
		if label == "" {
			label = "(logged in)"
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  "+label),
		)
	}

	if m.loadFailed {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleError.Render("  profile load failed"),
		)
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	for i, name := range m.entries {
		display := name
		if i == 0 {
			display = placeholder
		}
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
			display = theme.StyleSelected.Render(display)
		} else if i == 0 {
			display = theme.StyleDimmed.Render(display)
		}
		b.WriteString(prefix + display + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
