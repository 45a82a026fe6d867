package session

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cato-helper/console/internal/client"
)

// fakeAPI scripts the helper daemon.
type fakeAPI struct {
	loggedIn    bool
	displayName string
	statusErr   error
	loginResp   *client.LoginResponse
	loginErr    error
	logoutErr   error
	profiles    []client.Profile
	profilesErr error
	statusCalls int
	loginCalls  int
	logoutCalls int
}

func (f *fakeAPI) Status() (*client.StatusResponse, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &client.StatusResponse{LoggedIn: f.loggedIn, AccountDisplayName: f.displayName}, nil
}

func (f *fakeAPI) Profiles() ([]client.Profile, error) {
	return f.profiles, f.profilesErr
}

func (f *fakeAPI) Login(profileName string) (*client.LoginResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Logout() error {
	f.logoutCalls++
	return f.logoutErr
}

// fakeProfiles records persistence calls.
type fakeProfiles struct {
	saved   string
	cleared bool
	saveErr error
}

func (f *fakeProfiles) Load() (string, error) { return f.saved, nil }
func (f *fakeProfiles) Save(name string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = name
	return nil
}
func (f *fakeProfiles) Clear() error {
	f.saved = ""
	f.cleared = true
	return nil
}

// exec runs a command tree, flattening batches into the produced
// messages. Tick commands sleep for the (tiny) test interval.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// pump feeds messages through the controller until none produce
// follow-ups. Poll ticks generated along the way are dropped so the
// schedule doesn't run forever; tests feed ticks explicitly.
func pump(ctrl *Controller, msgs []tea.Msg) {
	queue := msgs
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		for _, follow := range exec(ctrl.Update(msg)) {
			if _, ok := follow.(PollTickMsg); ok {
				continue
			}
			queue = append(queue, follow)
		}
	}
}

func newTestController(api *fakeAPI) (*Controller, *fakeProfiles) {
	store := NewStore("")
	persisted := &fakeProfiles{}
	ctrl := NewController(api, store, persisted)
	ctrl.SetPollInterval(time.Millisecond)
	return ctrl, persisted
}

func TestSubmitLoginEmptyProfileMakesNoRequest(t *testing.T) {
	api := &fakeAPI{}
	ctrl, _ := newTestController(api)

	cmd := ctrl.SubmitLogin("")

	assert.Nil(t, cmd)
	assert.Zero(t, api.loginCalls)
	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggedOut, snap.State)
	assert.Equal(t, "select a login profile first", snap.Label)
}

func TestSubmitLoginStartedThenPollConfirms(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, persisted := newTestController(api)

	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	// Backend accepted; poller running, first probe negative.
	snap := ctrl.Store().Snapshot()
	require.Equal(t, LoggingIn, snap.State)
	assert.True(t, ctrl.PollerRunning())
	assert.Equal(t, "prod-env", persisted.saved)

	// Next tick finds the session confirmed.
	api.loggedIn = true
	api.displayName = "CMA (acct)"
	pump(ctrl, []tea.Msg{PollTickMsg{Gen: 1}})

	snap = ctrl.Store().Snapshot()
	assert.Equal(t, LoggedIn, snap.State)
	assert.Equal(t, "prod-env", snap.Label, "active profile wins over backend label")
	assert.False(t, ctrl.PollerRunning(), "poller must stop on LoggedIn")
}

func TestSubmitLoginBackendError(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginError, Message: "bad creds"}}
	ctrl, _ := newTestController(api)

	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggedOut, snap.State)
	assert.Equal(t, "bad creds", snap.Label)
	assert.False(t, snap.InProgress)
	assert.False(t, ctrl.PollerRunning())
}

func TestSubmitLoginTransportErrorUsesGenericMessage(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("connection refused")}
	ctrl, _ := newTestController(api)

	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggedOut, snap.State)
	assert.Equal(t, "login request failed", snap.Label)
}

func TestAlreadyLoggedInChecksOnceWithoutPolling(t *testing.T) {
	api := &fakeAPI{
		loginResp:   &client.LoginResponse{Status: client.LoginAlreadyLoggedIn},
		loggedIn:    true,
		displayName: "CMA (acct)",
	}
	ctrl, _ := newTestController(api)

	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	assert.Equal(t, LoggedIn, ctrl.Store().Snapshot().State)
	assert.False(t, ctrl.PollerRunning())
	assert.Equal(t, 1, api.statusCalls)
}

func TestFailedProbeDoesNotDemoteLoggingIn(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, _ := newTestController(api)
	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))
	require.Equal(t, LoggingIn, ctrl.Store().Snapshot().State)

	api.statusErr = errors.New("connection reset")
	pump(ctrl, []tea.Msg{PollTickMsg{Gen: 1}})

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggingIn, snap.State, "a failed probe reports, it never demotes")
	assert.True(t, snap.InProgress)
	assert.Equal(t, "status check failed", snap.Label)
	assert.True(t, ctrl.PollerRunning(), "retry is the next tick's job")
}

func TestNegativeProbeKeepsPolling(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, _ := newTestController(api)
	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	pump(ctrl, []tea.Msg{PollTickMsg{Gen: 1}})

	assert.Equal(t, LoggingIn, ctrl.Store().Snapshot().State)
	assert.True(t, ctrl.PollerRunning())
}

func TestDoubleSubmitIsNoOp(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, _ := newTestController(api)

	first := ctrl.SubmitLogin("prod-env")
	require.NotNil(t, first)
	assert.Nil(t, ctrl.SubmitLogin("prod-env"), "submit while in progress must not fire")

	pump(ctrl, exec(first))
	assert.Equal(t, 1, api.loginCalls)
}

func TestReloadCheckDuringLoginDoesNotAbortAttempt(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, _ := newTestController(api)

	loginCmd := ctrl.SubmitLogin("prod-env")
	require.NotNil(t, loginCmd)

	// A user-triggered reload lands its negative result before the
	// login response arrives.
	pump(ctrl, exec(ctrl.CheckOnce()))

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggingIn, snap.State, "a negative one-shot check must not demote an in-flight login")
	assert.True(t, snap.InProgress)

	// Delivering the login response afterwards starts polling as usual.
	pump(ctrl, exec(loginCmd))
	assert.Equal(t, LoggingIn, ctrl.Store().Snapshot().State)
	assert.True(t, ctrl.PollerRunning())
	assert.Equal(t, 1, api.loginCalls)
}

func TestAlreadyLoggedInNegativeCheckResolvesAttempt(t *testing.T) {
	// Backend claims already_logged_in but the follow-up check comes
	// back negative: the attempt must not hang in LoggingIn forever.
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginAlreadyLoggedIn}}
	ctrl, _ := newTestController(api)

	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggedOut, snap.State)
	assert.False(t, snap.InProgress)
	assert.False(t, ctrl.PollerRunning())
}

func TestStaleStatusResultDiscarded(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, _ := newTestController(api)
	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	// A positive result from a previous epoch must not flip state.
	stale := StatusResultMsg{
		Epoch: ctrl.Epoch() - 1,
		Resp:  &client.StatusResponse{LoggedIn: true},
	}
	pump(ctrl, []tea.Msg{stale})

	assert.Equal(t, LoggingIn, ctrl.Store().Snapshot().State)
}

func TestLogoutDeclinedHasNoSideEffects(t *testing.T) {
	api := &fakeAPI{loggedIn: true}
	ctrl, _ := newTestController(api)
	pump(ctrl, exec(ctrl.CheckOnce()))
	require.Equal(t, LoggedIn, ctrl.Store().Snapshot().State)

	assert.Nil(t, ctrl.SubmitLogout(false))
	assert.Zero(t, api.logoutCalls)
	assert.Equal(t, LoggedIn, ctrl.Store().Snapshot().State)
}

func TestLogoutSuccessResetsAndReloadsProfiles(t *testing.T) {
	api := &fakeAPI{
		loggedIn: true,
		profiles: []client.Profile{{Name: "prod-env"}},
	}
	ctrl, persisted := newTestController(api)
	persisted.saved = "prod-env"
	pump(ctrl, exec(ctrl.CheckOnce()))

	cmd := ctrl.SubmitLogout(true)
	require.NotNil(t, cmd)
	msgs := exec(cmd)

	// The logout result triggers a fresh profile-list reload.
	var sawReload bool
	for len(msgs) > 0 {
		msg := msgs[0]
		msgs = msgs[1:]
		if _, ok := msg.(ProfilesLoadedMsg); ok {
			sawReload = true
		}
		msgs = append(msgs, exec(ctrl.Update(msg))...)
	}

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggedOut, snap.State)
	assert.Empty(t, snap.ActiveProfile)
	assert.True(t, persisted.cleared)
	assert.Empty(t, persisted.saved)
	assert.True(t, sawReload)
}

func TestLogoutFailureLeavesSessionState(t *testing.T) {
	api := &fakeAPI{loggedIn: true, logoutErr: errors.New("500")}
	ctrl, persisted := newTestController(api)
	persisted.saved = "prod-env"
	pump(ctrl, exec(ctrl.CheckOnce()))

	pump(ctrl, exec(ctrl.SubmitLogout(true)))

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, LoggedIn, snap.State, "failed logout leaves the session as-is")
	assert.Equal(t, "logout failed", snap.Label)
	assert.False(t, ctrl.PollerRunning())
	assert.False(t, persisted.cleared)
}

func TestPersistFailureDoesNotBlockLogin(t *testing.T) {
	api := &fakeAPI{loginResp: &client.LoginResponse{Status: client.LoginStarted}}
	ctrl, persisted := newTestController(api)
	persisted.saveErr = errors.New("disk full")

	pump(ctrl, exec(ctrl.SubmitLogin("prod-env")))

	assert.Equal(t, 1, api.loginCalls)
	assert.Equal(t, LoggingIn, ctrl.Store().Snapshot().State)
}

func TestProfileLoadFailureSurfacesNotConfigured(t *testing.T) {
	api := &fakeAPI{profilesErr: errors.New("boom")}
	ctrl, _ := newTestController(api)

	pump(ctrl, exec(ctrl.LoadProfiles()))

	assert.Equal(t, "profile not configured", ctrl.Store().Snapshot().Label)
}
