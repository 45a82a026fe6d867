// Package statusbar renders the session indicator bar: connection to
// the helper daemon, session state glyph and the current display label.
package statusbar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cato-helper/console/internal/session"
	"github.com/cato-helper/console/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Snap            session.Snapshot
	StreamConnected bool
	Width           int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// SetSnapshot updates the rendered session snapshot. Registered as the
// store subscriber by the root model.
func (m *Model) SetSnapshot(snap session.Snapshot) {
	m.Snap = snap
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	state := m.Snap.State.String()
	glyph := lipgloss.NewStyle().
		Foreground(theme.StateColor(state)).
		Render(theme.StateGlyph(state))

	label := m.Snap.Label
	if label == "" {
		label = state
	}
	labelStr := lipgloss.NewStyle().
		Foreground(theme.StateColor(state)).
		Render(label)

	var streamStr string
	if m.StreamConnected {
		streamStr = lipgloss.NewStyle().Foreground(theme.ColorLoggedIn).Render("log stream ●")
	} else {
		streamStr = theme.StyleDimmed.Render("log stream ○")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := "CMA " + glyph + " " + labelStr
	if m.Snap.ActiveProfile != "" && m.Snap.ActiveProfile != label {
		content += sep + theme.StyleDimmed.Render("profile: "+m.Snap.ActiveProfile)
	}
	content += sep + streamStr

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
