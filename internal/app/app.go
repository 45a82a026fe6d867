// Package app wires the console: the root Bubble Tea model routes key
// input to the session controllers and renders the views from store
// snapshots. The update loop is the single thread on which all session
// state mutations happen.
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cato-helper/console/internal/client"
	"github.com/cato-helper/console/internal/session"
	"github.com/cato-helper/console/internal/theme"
	"github.com/cato-helper/console/internal/views/debug"
	"github.com/cato-helper/console/internal/views/help"
	"github.com/cato-helper/console/internal/views/network"
	"github.com/cato-helper/console/internal/views/profiles"
	"github.com/cato-helper/console/internal/views/statusbar"
)

// View identifies the active page.
type View int

const (
	ViewHome View = iota
	ViewNetwork
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayLogoutConfirm
	OverlayShutdownConfirm
	OverlayNotice
	OverlayDebug
	OverlayHelp
)

// navNetwork is the guard destination tag for the static-route view.
const navNetwork = "network"

// --- app-local messages ---

type staticRouteMsg struct {
	data *client.StaticRouteInit
	err  error
}

type shutdownDoneMsg struct{}

// Model is the root Bubble Tea model.
type Model struct {
	http   *client.HTTPClient
	ws     *client.WSClient
	ctrl   *session.Controller
	guard  *session.NavigationGuard
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	activeView View
	overlay    Overlay
	notice     string

	// Sub-views. Pointers: the store subscriber and the controller
	// event sink hold onto them across model copies.
	statusBar    *statusbar.Model
	profilesView *profiles.Model
	networkView  *network.Model
	debugLog     *debug.Model
	helpView     help.Model

	seedProfile string
}

// New creates the root model. seedProfile is the persisted profile name
// read at startup, used to pre-seed the label and cursor.
func New(httpClient *client.HTTPClient, ws *client.WSClient, ctrl *session.Controller, seedProfile string) Model {
	ctx, cancel := context.WithCancel(context.Background())

	statusBar := statusbar.New()
	profilesView := profiles.New()
	networkView := network.New()
	debugLog := debug.New()

	m := Model{
		http:         httpClient,
		ws:           ws,
		ctrl:         ctrl,
		guard:        session.NewNavigationGuard(httpClient),
		ctx:          ctx,
		cancel:       cancel,
		keys:         DefaultKeyMap(),
		statusBar:    &statusBar,
		profilesView: &profilesView,
		networkView:  &networkView,
		debugLog:     &debugLog,
		helpView:     help.New(),
		seedProfile:  seedProfile,
	}

	// Renderers follow the store; control enablement comes from the
	// same snapshot stream.
	bar, selector := m.statusBar, m.profilesView
	ctrl.Store().Subscribe(func(snap session.Snapshot) {
		bar.SetSnapshot(snap)
		selector.Disabled = snap.State == session.LoggedIn
		selector.FixedLabel = snap.ActiveProfile
	})
	ctrl.SetEventSink(m.debugLog.Add)
	m.statusBar.SetSnapshot(ctrl.Store().Snapshot())

	return m
}

// Init performs the startup checks: one status probe, the profile list
// load and the daemon log stream connection.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.ctrl.CheckOnce(), m.ctrl.LoadProfiles()}
	if m.ws != nil {
		cmds = append(cmds, m.ws.Listen(m.ctx))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.networkView.Width = msg.Width
		m.debugLog.Width = msg.Width
		m.debugLog.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.statusBar.StreamConnected = true
		m.debugLog.Add("ws", "log stream connected")
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.statusBar.StreamConnected = false
		return m, m.ws.Listen(m.ctx)

	case client.WSLogMsg:
		m.debugLog.AddAt(msg.Payload.Time, "daemon", msg.Payload.Message)
		return m, m.ws.ReadLoop(m.ctx)

	case session.ProfilesLoadedMsg:
		if msg.Err != nil {
			m.profilesView.SetLoadFailed()
		} else {
			m.profilesView.SetProfiles(msg.Profiles, m.seedProfile)
		}
		return m, m.ctrl.Update(msg)

	case session.GuardResultMsg:
		return m.handleGuardResult(msg)

	case staticRouteMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				m.networkView.SetError("log in to CMA before using this view")
			} else {
				m.networkView.SetError("data load failed: " + msg.err.Error())
			}
		} else {
			m.networkView.SetData(msg.data)
		}
		return m, nil

	case shutdownDoneMsg:
		m.cancel()
		return m, tea.Quit
	}

	return m, m.ctrl.Update(msg)
}

func (m Model) handleGuardResult(msg session.GuardResultMsg) (tea.Model, tea.Cmd) {
	if !msg.Allowed {
		if msg.Err != nil {
			m.notice = "CMA status check failed; check the session indicator."
			m.debugLog.Add("guard", "check failed: "+msg.Err.Error())
		} else {
			m.notice = "Log in to CMA before using this menu."
			m.debugLog.Add("guard", "blocked "+msg.Dest)
		}
		m.overlay = OverlayNotice
		return m, nil
	}

	m.debugLog.Add("guard", "allowed "+msg.Dest)
	if msg.Dest == navNetwork {
		m.activeView = ViewNetwork
		m.networkView.SetLoading()
		return m, m.loadStaticRoute()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != OverlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if m.activeView == ViewHome {
			m.profilesView.MoveDown()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.activeView == ViewHome {
			m.profilesView.MoveUp()
		}
		return m, nil

	case key.Matches(msg, m.keys.Login):
		snap := m.ctrl.Store().Snapshot()
		if snap.InProgress || snap.State == session.LoggedIn {
			return m, nil
		}
		return m, m.ctrl.SubmitLogin(m.profilesView.Selected())

	case key.Matches(msg, m.keys.Logout):
		if m.ctrl.Store().Snapshot().State != session.LoggedIn {
			return m, nil
		}
		m.overlay = OverlayLogoutConfirm
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.activeView = ViewHome
		return m, nil

	case key.Matches(msg, m.keys.Network):
		// Session-gated: always a fresh status check, never a cached
		// verdict.
		return m, m.guard.Check(navNetwork)

	case key.Matches(msg, m.keys.Reload):
		if m.activeView == ViewNetwork {
			m.networkView.SetLoading()
			return m, m.loadStaticRoute()
		}
		return m, tea.Batch(m.ctrl.CheckOnce(), m.ctrl.LoadProfiles())

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Shutdown):
		m.overlay = OverlayShutdownConfirm
		return m, nil
	}

	return m, nil
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayLogoutConfirm:
		if key.Matches(msg, m.keys.Confirm) {
			m.overlay = OverlayNone
			return m, m.ctrl.SubmitLogout(true)
		}
		if key.Matches(msg, m.keys.Deny) || key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
			return m, m.ctrl.SubmitLogout(false)
		}
		return m, nil

	case OverlayShutdownConfirm:
		if key.Matches(msg, m.keys.Confirm) {
			m.overlay = OverlayNone
			return m, m.shutdownDaemon()
		}
		if key.Matches(msg, m.keys.Deny) || key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
			return m, nil
		}
		return m, nil

	case OverlayDebug:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.debugLog.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debugLog.ScrollDown(1)
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		}
		return m, nil

	default:
		// Notice and help close on escape or their toggle key.
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.overlay = OverlayNone
			m.notice = ""
		}
		return m, nil
	}
}

func (m Model) loadStaticRoute() tea.Cmd {
	httpClient := m.http
	return func() tea.Msg {
		data, err := httpClient.StaticRouteInit()
		return staticRouteMsg{data: data, err: err}
	}
}

func (m Model) shutdownDaemon() tea.Cmd {
	httpClient := m.http
	return func() tea.Msg {
		// The daemon may die before answering; that is fine.
		_ = httpClient.Shutdown()
		return shutdownDoneMsg{}
	}
}

// View renders the console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayLogoutConfirm:
		body = m.renderConfirm("Log out from CMA?")
	case OverlayShutdownConfirm:
		body = m.renderConfirm("Shut down the helper daemon?")
	case OverlayNotice:
		body = theme.StyleBorder.Padding(1, 2).Render(
			theme.StyleError.Render(m.notice) + "\n\n" + theme.StyleDimmed.Render("esc to close"))
	case OverlayDebug:
		body = m.debugLog.View()
	case OverlayHelp:
		body = m.helpView.View()
	default:
		body = m.renderActiveView()
	}

	footer := theme.StyleDimmed.Render(
		"  j/k:profile  enter:login  o:logout  1:home  2:routes  r:reload  d:log  ?:help  q:quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		body,
		footer,
	)
}

func (m Model) renderActiveView() string {
	if m.activeView == ViewNetwork {
		return m.networkView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.profilesView.View(),
		"",
		theme.StyleDimmed.Render("  enter logs in with the selected profile"),
	)
}

func (m Model) renderConfirm(question string) string {
	return theme.StyleBorder.Padding(1, 2).Render(
		theme.StyleHeader.Render(question) + "\n\n" +
			theme.StyleDimmed.Render("y: yes    n: no"))
}
