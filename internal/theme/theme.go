// Package theme provides the Lip Gloss color palette and reusable
// styles for the CMA console. It is a leaf package with no internal
// imports to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Session indicator colors, mirroring the login-status-off/on/processing
// classes of the original web console.
var (
	ColorLoggedOut = lipgloss.Color("#6b7280")
	ColorLoggingIn = lipgloss.Color("#d97706")
	ColorLoggedIn  = lipgloss.Color("#22c55e")
	ColorError     = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#3b82f6")
	ColorWarning = lipgloss.Color("#d97706")
)

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)
)

// StateColor returns the indicator color for a session state name as
// produced by the session package ("logged_out", "logging_in",
// "logged_in").
func StateColor(state string) lipgloss.Color {
	switch state {
	case "logged_in":
		return ColorLoggedIn
	case "logging_in":
		return ColorLoggingIn
	default:
		return ColorLoggedOut
	}
}

// StateGlyph returns a Unicode glyph for a session state name.
func StateGlyph(state string) string {
	switch state {
	case "logged_in":
		return "●"
	case "logging_in":
		return "◌"
	default:
		return "○"
	}
}
