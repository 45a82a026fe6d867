package session

import (
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cato-helper/console/internal/client"
	"github.com/cato-helper/console/internal/profile"
)

// API is the slice of the helper daemon surface the controllers need.
type API interface {
	Status() (*client.StatusResponse, error)
	Profiles() ([]client.Profile, error)
	Login(profileName string) (*client.LoginResponse, error)
	Logout() error
}

// --- Bubble Tea messages ---

// StatusResultMsg carries one status-check result. Authoritative marks
// the single follow-up check after an already_logged_in login response:
// it is the only negative result allowed to resolve an in-flight
// attempt.
type StatusResultMsg struct {
	Epoch         uint64
	FromPoller    bool
	Authoritative bool
	Resp          *client.StatusResponse
	Err           error
}

// LoginResultMsg carries the login request result.
type LoginResultMsg struct {
	Epoch   uint64
	Profile string
	Resp    *client.LoginResponse
	Err     error
}

// LogoutResultMsg carries the logout request result.
type LogoutResultMsg struct {
	Epoch uint64
	Err   error
}

// ProfilesLoadedMsg carries the profile list, or the load failure.
type ProfilesLoadedMsg struct {
	Profiles []client.Profile
	Err      error
}

// Controller orchestrates login, logout and polling against the Store.
// All methods must be called from the update loop.
//
// Every issued request carries the epoch current at issue time; results
// whose epoch no longer matches are discarded, so a stale response can
// never overwrite state changed by a newer action.
type Controller struct {
	api      API
	store    *Store
	profiles profile.Store
	poller   Poller
	epoch    uint64

	// events, when set, receives controller activity for the debug log.
	events func(kind, message string)
}

// NewController wires the controller to its collaborators. profiles may
// be nil, in which case persistence is skipped.
func NewController(api API, store *Store, profiles profile.Store) *Controller {
	return &Controller{api: api, store: store, profiles: profiles}
}

// SetEventSink registers a callback receiving debug events.
func (c *Controller) SetEventSink(fn func(kind, message string)) {
	c.events = fn
}

// SetPollInterval overrides the default 5s probe period.
func (c *Controller) SetPollInterval(d time.Duration) {
	c.poller.Interval = d
}

// Store returns the controller's state store.
func (c *Controller) Store() *Store { return c.store }

// PollerRunning reports whether the status poller is active.
func (c *Controller) PollerRunning() bool { return c.poller.Running() }

// Epoch returns the current request epoch.
func (c *Controller) Epoch() uint64 { return c.epoch }

// CheckOnce issues a single status check outside the polling schedule
// (startup, user-triggered reloads).
func (c *Controller) CheckOnce() tea.Cmd {
	return c.statusCmd(false, false)
}

// LoadProfiles fetches the profile list.
func (c *Controller) LoadProfiles() tea.Cmd {
	api := c.api
	return func() tea.Msg {
		profiles, err := api.Profiles()
		return ProfilesLoadedMsg{Profiles: profiles, Err: err}
	}
}

// SubmitLogin starts a login attempt for the selected profile.
//
// An empty selection is a validation failure: surfaced to the user, no
// backend call, state stays LoggedOut. Persisting the selection is
// best-effort. A submit while a login is already in progress is a
// no-op (the control is disabled, but a queued double-press must not
// fire twice).
func (c *Controller) SubmitLogin(selectedProfile string) tea.Cmd {
	if c.store.Snapshot().InProgress {
		return nil
	}
	if selectedProfile == "" {
		c.store.FailLogin("select a login profile first")
		c.event("login", "rejected: no profile selected")
		return nil
	}

	if c.profiles != nil {
		if err := c.profiles.Save(selectedProfile); err != nil {
			log.Printf("profile persist failed (continuing): %v", err)
		}
	}

	c.poller.Stop()
	c.store.BeginLogin(selectedProfile)
	c.epoch++
	c.event("login", "submitted profile "+selectedProfile)

	epoch := c.epoch
	api := c.api
	return func() tea.Msg {
		resp, err := api.Login(selectedProfile)
		return LoginResultMsg{Epoch: epoch, Profile: selectedProfile, Resp: resp, Err: err}
	}
}

// SubmitLogout performs a logout. confirmed is the explicit user
// confirmation gate: declined means no side effects at all.
func (c *Controller) SubmitLogout(confirmed bool) tea.Cmd {
	if !confirmed {
		return nil
	}
	c.poller.Stop()
	c.epoch++
	c.event("logout", "submitted")

	epoch := c.epoch
	api := c.api
	return func() tea.Msg {
		return LogoutResultMsg{Epoch: epoch, Err: api.Logout()}
	}
}

// Update routes session messages. Returns a follow-up command or nil.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoginResultMsg:
		return c.handleLoginResult(msg)
	case LogoutResultMsg:
		return c.handleLogoutResult(msg)
	case StatusResultMsg:
		return c.handleStatusResult(msg)
	case PollTickMsg:
		return c.handlePollTick(msg)
	case ProfilesLoadedMsg:
		if msg.Err != nil {
			// Without a profile list there is nothing to log in with.
			c.store.Surface("profile not configured")
			c.event("profiles", "load failed: "+msg.Err.Error())
		}
		return nil
	}
	return nil
}

func (c *Controller) handleLoginResult(msg LoginResultMsg) tea.Cmd {
	if msg.Epoch != c.epoch {
		c.event("login", "stale result dropped")
		return nil
	}
	if msg.Err != nil {
		c.store.FailLogin("login request failed")
		c.event("login", "transport error: "+msg.Err.Error())
		return nil
	}

	switch msg.Resp.Status {
	case client.LoginAlreadyLoggedIn:
		// Already logged in: one immediate check is authoritative, no
		// polling.
		c.event("login", "already logged in")
		return c.statusCmd(false, true)
	case client.LoginStarted:
		c.event("login", "started, polling status")
		return c.startPoller()
	case client.LoginError:
		reason := msg.Resp.Message
		if reason == "" {
			reason = "login failed"
		}
		c.store.FailLogin(reason)
		c.event("login", "backend error: "+reason)
		return nil
	default:
		c.store.FailLogin("unexpected login response")
		c.event("login", "unexpected status "+msg.Resp.Status)
		return nil
	}
}

func (c *Controller) handleLogoutResult(msg LogoutResultMsg) tea.Cmd {
	if msg.Epoch != c.epoch {
		c.event("logout", "stale result dropped")
		return nil
	}
	if msg.Err != nil {
		// Session is still conceptually active; report and leave state
		// untouched. Polling stays stopped until the next user action.
		c.store.Surface("logout failed")
		c.event("logout", "failed: "+msg.Err.Error())
		return nil
	}

	c.store.CompleteLogout()
	if c.profiles != nil {
		if err := c.profiles.Clear(); err != nil {
			log.Printf("profile clear failed: %v", err)
		}
	}
	c.event("logout", "done")
	return c.LoadProfiles()
}

func (c *Controller) handleStatusResult(msg StatusResultMsg) tea.Cmd {
	if msg.FromPoller {
		c.poller.EndProbe()
	}
	if msg.Epoch != c.epoch {
		c.event("status", "stale result dropped")
		return nil
	}
	if msg.Err != nil {
		// A failed probe reports, it never demotes. Retry is the next
		// tick's job.
		c.store.Surface(labelCheckFailed)
		c.event("status", "check failed: "+msg.Err.Error())
		return nil
	}

	c.store.ApplyStatus(msg.Resp.LoggedIn, msg.Resp.DisplayLabel())
	snap := c.store.Snapshot()
	if snap.State != LoggingIn {
		c.poller.Stop()
		return nil
	}
	if msg.Authoritative {
		// The already_logged_in follow-up came back negative with no
		// poller to retry: resolve the attempt. Any other one-shot check
		// (a reload racing a just-submitted login) must not abort it.
		c.store.FailLogin(labelLoggedOut)
		c.event("status", "authoritative check negative, login resolved")
	}
	return nil
}

func (c *Controller) handlePollTick(msg PollTickMsg) tea.Cmd {
	if !c.poller.Owns(msg) {
		return nil
	}
	next := c.poller.TickCmd()
	if !c.poller.BeginProbe() {
		c.event("poll", "tick skipped, probe outstanding")
		return next
	}
	return tea.Batch(c.statusCmd(true, false), next)
}

// startPoller activates the schedule: one immediate probe plus the
// recurring timer. No-op when already running.
func (c *Controller) startPoller() tea.Cmd {
	if !c.poller.Start() {
		return nil
	}
	c.poller.BeginProbe()
	return tea.Batch(c.statusCmd(true, false), c.poller.TickCmd())
}

func (c *Controller) statusCmd(fromPoller, authoritative bool) tea.Cmd {
	epoch := c.epoch
	api := c.api
	return func() tea.Msg {
		resp, err := api.Status()
		return StatusResultMsg{
			Epoch:         epoch,
			FromPoller:    fromPoller,
			Authoritative: authoritative,
			Resp:          resp,
			Err:           err,
		}
	}
}

func (c *Controller) event(kind, message string) {
	if c.events != nil {
		c.events(kind, message)
	}
}
