// Package helperd implements the local CMA helper daemon: the HTTP
// surface the console talks to, a simulated CMA session behind it, and
// a WebSocket broadcaster for live log lines.
package helperd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Login outcome values for POST /cma/login.
const (
	loginAlreadyLoggedIn = "already_logged_in"
	loginStarted         = "started"
	loginError           = "error"
)

var errUnknownProfile = errors.New("unknown login profile")

// CMA simulates the third-party session the daemon manages. The real
// helper drives a browser login; here a timed worker stands in, so the
// console exercises the started-then-poll flow end to end.
type CMA struct {
	mu          sync.Mutex
	loggedIn    bool
	inProgress  bool
	profile     string
	sessionID   string
	displayName string

	profiles map[string]bool
	duration time.Duration
	failure  string // non-empty: every login attempt fails with this message

	logf func(level, format string, args ...interface{})
}

// NewCMA creates a simulated CMA backend accepting the given profiles.
func NewCMA(profiles []string, duration time.Duration, failure string, logf func(level, format string, args ...interface{})) *CMA {
	set := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		set[p] = true
	}
	if logf == nil {
		logf = func(string, string, ...interface{}) {}
	}
	return &CMA{
		profiles: set,
		duration: duration,
		failure:  failure,
		logf:     logf,
	}
}

// HasProfile reports whether the named profile is configured.
func (c *CMA) HasProfile(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profiles[name]
}

// StartLogin begins a login attempt. Returns the wire status plus an
// optional message.
func (c *CMA) StartLogin(profileName string) (status, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn {
		return loginAlreadyLoggedIn, ""
	}
	if !c.profiles[profileName] {
		return loginError, errUnknownProfile.Error()
	}
	if c.failure != "" {
		return loginError, c.failure
	}
	if c.inProgress {
		// A second start while the worker runs piggybacks on it.
		return loginStarted, ""
	}

	c.inProgress = true
	c.profile = profileName
	c.sessionID = uuid.NewString()
	go c.worker(profileName, c.sessionID)
	return loginStarted, ""
}

// worker simulates the browser login flow, confirming the session after
// the configured duration.
func (c *CMA) worker(profileName, sessionID string) {
	c.logf("info", "login worker %s: opening CMA login page for %s", sessionID, profileName)
	steps := []string{"submitting credentials", "waiting for CMA confirmation"}
	stepDelay := c.duration / time.Duration(len(steps)+1)
	for _, step := range steps {
		time.Sleep(stepDelay)
		c.logf("info", "login worker %s: %s", sessionID, step)
	}
	time.Sleep(stepDelay)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID {
		// Superseded by a logout or a newer attempt.
		c.logf("info", "login worker %s: superseded, discarding", sessionID)
		return
	}
	c.inProgress = false
	c.loggedIn = true
	c.displayName = fmt.Sprintf("CMA (%s)", profileName)
	c.logf("info", "login worker %s: session confirmed for %s", sessionID, profileName)
}

// Status reports the current session state for GET /cma/status.
func (c *CMA) Status() (loggedIn bool, accountName, accountDisplayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loggedIn {
		return false, "", ""
	}
	return true, c.profile, c.displayName
}

// Logout drops the session. Any in-flight worker is invalidated.
func (c *CMA) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedIn = false
	c.inProgress = false
	c.profile = ""
	c.sessionID = ""
	c.displayName = ""
	c.logf("info", "session logged out")
}

// LoggedIn reports whether a session is confirmed.
func (c *CMA) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}
