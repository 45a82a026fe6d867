// Package session implements the CMA session state machine and the
// controllers that drive it: login and logout orchestration, status
// polling while a login is in flight, and the navigation guard for
// session-gated views. All mutations happen on the Bubble Tea update
// loop, so no locking is needed; logical races across asynchronous
// completions are handled by the request epoch (see Controller).
package session

// State is the session's primary state machine value. Exactly one
// state is active at any time.
type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
)

// String returns the wire-friendly state name.
func (s State) String() string {
	switch s {
	case LoggedIn:
		return "logged_in"
	case LoggingIn:
		return "logging_in"
	default:
		return "logged_out"
	}
}

// Fallback display labels.
const (
	labelLoggedOut   = "not logged in"
	labelLoggingIn   = "logging in..."
	labelLoggedIn    = "logged in"
	labelCheckFailed = "status check failed"
)

// Snapshot is the read-only view delivered to renderers.
type Snapshot struct {
	State         State
	Label         string
	InProgress    bool
	ActiveProfile string
}

// Store holds the session state. It is the sole writer: the presentation
// layer only reads snapshots, and every mutation notifies subscribers.
type Store struct {
	state         State
	label         string
	inProgress    bool
	activeProfile string
	subs          []func(Snapshot)
}

// NewStore creates a store in the LoggedOut state. seedProfile, when
// non-empty, pre-seeds the display label before the first status
// confirmation arrives (the persisted profile from a previous run).
func NewStore(seedProfile string) *Store {
	return &Store{
		state:         LoggedOut,
		label:         labelLoggedOut,
		activeProfile: seedProfile,
	}
}

// Subscribe registers a renderer callback invoked after every mutation.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.subs = append(s.subs, fn)
}

// Snapshot returns the current state. Pure read, no side effects.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		State:         s.state,
		Label:         s.label,
		InProgress:    s.inProgress,
		ActiveProfile: s.activeProfile,
	}
}

// ApplyStatus feeds one status-check result into the state machine.
//
// loggedIn true moves to LoggedIn with label precedence
// activeProfile > backendLabel > "logged in". loggedIn false moves to
// LoggingIn while a login is in progress (a negative probe never
// demotes an in-flight login), else LoggedOut.
func (s *Store) ApplyStatus(loggedIn bool, backendLabel string) {
	if loggedIn {
		label := s.activeProfile
		if label == "" {
			label = backendLabel
		}
		if label == "" {
			label = labelLoggedIn
		}
		s.state = LoggedIn
		s.label = label
		s.inProgress = false
	} else if s.inProgress {
		s.state = LoggingIn
		s.label = labelLoggingIn
	} else {
		s.state = LoggedOut
		s.label = labelLoggedOut
	}
	s.notify()
}

// BeginLogin records the chosen profile and enters LoggingIn.
func (s *Store) BeginLogin(profileName string) {
	s.activeProfile = profileName
	s.state = LoggingIn
	s.label = labelLoggingIn
	s.inProgress = true
	s.notify()
}

// CompleteLogout resets to LoggedOut and clears the active profile.
func (s *Store) CompleteLogout() {
	s.activeProfile = ""
	s.state = LoggedOut
	s.label = labelLoggedOut
	s.inProgress = false
	s.notify()
}

// FailLogin aborts a login attempt: LoggedOut, reason surfaced as the
// label. The active profile is cleared so the user may retry with a
// different choice.
func (s *Store) FailLogin(reason string) {
	if reason == "" {
		reason = "login failed"
	}
	s.activeProfile = ""
	s.state = LoggedOut
	s.label = reason
	s.inProgress = false
	s.notify()
}

// Surface replaces only the display label, leaving state, progress and
// profile untouched. Used for transient reports such as a failed status
// probe or a failed logout.
func (s *Store) Surface(label string) {
	s.label = label
	s.notify()
}

func (s *Store) notify() {
	snap := s.Snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}
