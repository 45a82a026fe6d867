// Package help renders the key-reference overlay from markdown.
package help

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# CMA Console

Terminal console for the local CMA helper daemon.

## Keys

| Key | Action |
|-----|--------|
| j/k | move profile cursor |
| enter | log in with the selected profile |
| o | log out (asks for confirmation) |
| 1 | home view |
| 2 | static routes view (needs CMA login) |
| r | reload current view |
| d | event log overlay |
| ? | this help |
| X | shut down the helper daemon |
| q | quit the console |

The session indicator in the top bar shows the CMA login state; while a
login is running the daemon is polled every few seconds until the
session is confirmed.
`

// Model holds the rendered help text.
type Model struct {
	rendered string
}

// New renders the help markdown once. Falls back to the raw markdown if
// rendering fails (e.g. no usable terminal profile).
func New() Model {
	out, err := glamour.Render(helpMarkdown, "dark")
	if err != nil {
		out = helpMarkdown
	}
	return Model{rendered: out}
}

// View returns the rendered help text.
func (m Model) View() string {
	return m.rendered
}
