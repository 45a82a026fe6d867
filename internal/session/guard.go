package session

import (
	tea "github.com/charmbracelet/bubbletea"
)

// GuardResultMsg is the verdict for one gated navigation attempt.
type GuardResultMsg struct {
	Dest    string
	Allowed bool
	Err     error
}

// NavigationGuard gates navigation to views that need a confirmed CMA
// session. Every attempt issues a fresh status check; the guard never
// caches a verdict, so a stale LoggedIn can never let a logged-out user
// through.
type NavigationGuard struct {
	api API
}

// NewNavigationGuard creates a guard backed by the given API.
func NewNavigationGuard(api API) *NavigationGuard {
	return &NavigationGuard{api: api}
}

// Check returns a command that resolves the navigation attempt to dest.
// The caller performs the navigation on Allowed, and presents a
// blocking notice otherwise.
func (g *NavigationGuard) Check(dest string) tea.Cmd {
	api := g.api
	return func() tea.Msg {
		resp, err := api.Status()
		if err != nil {
			return GuardResultMsg{Dest: dest, Allowed: false, Err: err}
		}
		return GuardResultMsg{Dest: dest, Allowed: resp.LoggedIn}
	}
}
