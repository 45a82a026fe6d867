package session

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultPollInterval is the fixed period between status probes while a
// login is in flight.
const DefaultPollInterval = 5 * time.Second

// PollTickMsg is delivered on each poll timer fire. Ticks carry the
// generation they were scheduled under; ticks from a stopped generation
// are dropped, which is what makes Stop idempotent and synchronous.
type PollTickMsg struct {
	Gen uint64
}

// Poller tracks the one recurring status probe. At most one instance of
// the schedule exists (Start while running is a no-op) and at most one
// probe is outstanding at any time (a timer fire during an outstanding
// probe skips that tick).
type Poller struct {
	Interval time.Duration

	running  bool
	inFlight bool
	gen      uint64
}

// Running reports whether the poller is active.
func (p *Poller) Running() bool { return p.running }

// Start activates the poller. Returns false (no-op) if already running.
func (p *Poller) Start() bool {
	if p.running {
		return false
	}
	p.gen++
	p.running = true
	p.inFlight = false
	return true
}

// Stop cancels the schedule. Idempotent: stopping a stopped poller does
// nothing. In-flight ticks are invalidated by the generation bump.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.gen++
	p.running = false
	p.inFlight = false
}

// Gen returns the current schedule generation.
func (p *Poller) Gen() uint64 { return p.gen }

// Owns reports whether a tick belongs to the active schedule.
func (p *Poller) Owns(msg PollTickMsg) bool {
	return p.running && msg.Gen == p.gen
}

// BeginProbe marks a probe as outstanding. Returns false when one is
// already in flight, in which case the caller skips this tick.
func (p *Poller) BeginProbe() bool {
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

// EndProbe clears the outstanding-probe mark.
func (p *Poller) EndProbe() { p.inFlight = false }

// TickCmd schedules the next timer fire for the current generation.
func (p *Poller) TickCmd() tea.Cmd {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	gen := p.gen
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return PollTickMsg{Gen: gen}
	})
}
