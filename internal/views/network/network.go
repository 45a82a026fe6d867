// Package network renders the static-route view: per-site network
// tables plus the account-level remote IP ranges. The view itself is
// dumb; loading and the login gate are the root model's job.
package network

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cato-helper/console/internal/client"
	"github.com/cato-helper/console/internal/theme"
)

// Model holds the static-route view state.
type Model struct {
	Status string // loading / result text shown above the tables
	data   *client.StaticRouteInit
	Width  int
}

// New creates an empty static-route model.
func New() Model {
	return Model{Status: "press r to load"}
}

// SetLoading marks the view as fetching.
func (m *Model) SetLoading() {
	m.Status = "fetching data..."
}

// SetData stores a successful init payload.
func (m *Model) SetData(data *client.StaticRouteInit) {
	m.data = data
	m.Status = fmt.Sprintf("loaded %d sites", len(data.Sites))
}

// SetError surfaces a load failure, dropping any stale tables.
func (m *Model) SetError(message string) {
	m.data = nil
	m.Status = message
}

// View renders the static-route page.
func (m Model) View() string {
	sections := []string{
		theme.StyleHeader.Render("Static Routes"),
		theme.StyleDimmed.Render(m.Status),
	}

	if m.data != nil {
		sections = append(sections, m.renderSites(), m.renderIPRanges())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSites() string {
	if len(m.data.Sites) == 0 {
		return theme.StyleDimmed.Render("  no site information found")
	}

	var blocks []string
	for _, site := range m.data.Sites {
		name := site.Name
		if name == "" {
			name = fmt.Sprintf("Site (%s)", site.ID)
		}
		var b strings.Builder
		b.WriteString(theme.StyleSelected.Render(name) + "\n")
		b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf(
			"  %-12s %-8s %-18s %-15s %-5s %-10s %s",
			"Interface", "Type", "CIDR", "Gateway", "VLAN", "DHCP", "Name")) + "\n")
		if len(site.Networks) == 0 {
			b.WriteString(theme.StyleDimmed.Render("  no network information") + "\n")
		}
		for _, n := range site.Networks {
			vlan := ""
			if n.VLAN != nil {
				vlan = fmt.Sprintf("%d", *n.VLAN)
			}
			b.WriteString(fmt.Sprintf(
				"  %-12s %-8s %-18s %-15s %-5s %-10s %s\n",
				n.InterfaceName, n.Type, n.CIDR, n.Gateway, vlan, n.DHCPType, n.SubnetName))
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (m Model) renderIPRanges() string {
	rows := []struct {
		label string
		value string
	}{
		{"Default IP Range", m.data.RemoteIPRanges.Default},
		{"Dynamic IP Range", m.data.RemoteIPRanges.Dynamic},
		{"Static IP Range", m.data.RemoteIPRanges.Static},
	}

	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render("Remote IP Ranges") + "\n")
	for _, row := range rows {
		value := row.value
		if value == "" {
			value = "-"
		}
		b.WriteString(fmt.Sprintf("  %-18s %s\n", row.label, value))
	}
	return strings.TrimRight(b.String(), "\n")
}
