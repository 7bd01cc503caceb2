// Package schedule decouples document changes from pagination passes: changes
// are recorded immediately, passes run later on an injectable ticker, and at
// most one pass is in flight at any time.
package schedule

import (
	"fmt"
	"sync"
)

// State of a Guard.
type State int

const (
	Idle State = iota
	// Scheduled means a pass has been handed to the ticker but has not taken
	// its snapshot yet.
	Scheduled
	Running
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	}
	return "idle"
}

// Admission tells the caller of Admit what to do with a change.
type Admission int

const (
	// AdmitNew: the guard left Idle, the caller must schedule a pass.
	AdmitNew Admission = iota
	// AdmitScheduled: a pass is scheduled and will see the change. Tickers
	// that restart their wait on every Schedule call may be rescheduled.
	AdmitScheduled
	// AdmitRunning: a pass is running on an older snapshot. The change is
	// recorded as pending.
	AdmitRunning
)

// Policy decides what happens to requests that arrive while a pass runs.
type Policy int

const (
	// RerunOnChange runs exactly one more pass after the current one when at
	// least one request arrived after the current pass took its snapshot.
	RerunOnChange Policy = iota
	// SingleOutstanding drops requests that arrive while a pass runs.
	SingleOutstanding
)

func (p Policy) String() string {
	if p == SingleOutstanding {
		return "single"
	}
	return "rerun"
}

// ParsePolicy accepts "rerun" and "single".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "rerun":
		return RerunOnChange, nil
	case "single":
		return SingleOutstanding, nil
	}
	return 0, fmt.Errorf("unknown schedule policy %q", s)
}

// Guard is the pass state machine. The zero value is not usable, use NewGuard.
type Guard struct {
	mu      sync.Mutex
	policy  Policy
	state   State
	pending bool
	idle    chan struct{} // closed while Idle
}

func NewGuard(policy Policy) *Guard {
	idle := make(chan struct{})
	close(idle)
	return &Guard{policy: policy, idle: idle}
}

// Admit records a change request. Idle moves to Scheduled; while Running the
// request is marked pending.
func (g *Guard) Admit() Admission {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case Scheduled:
		return AdmitScheduled
	case Running:
		g.pending = true
		return AdmitRunning
	}
	g.state = Scheduled
	g.pending = false
	g.idle = make(chan struct{})
	return AdmitNew
}

// TryBeginPass reports whether the request started a new pass cycle, that is
// whether the guard was Idle.
func (g *Guard) TryBeginPass() bool { return g.Admit() == AdmitNew }

// Start moves Scheduled to Running at the moment the pass takes its snapshot,
// forgetting requests the snapshot already covers. It returns false when no
// pass is scheduled, so duplicate ticker callbacks are harmless.
func (g *Guard) Start() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Scheduled {
		return false
	}
	g.state = Running
	g.pending = false
	return true
}

// EndPass finishes the current pass. It returns true when the caller must
// schedule another pass; the guard is then Scheduled again.
func (g *Guard) EndPass() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Running {
		return false
	}
	if g.policy == RerunOnChange && g.pending {
		g.state = Scheduled
		g.pending = false
		return true
	}
	g.state = Idle
	g.pending = false
	close(g.idle)
	return false
}

// Pending reports whether a request arrived during the current pass.
func (g *Guard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Policy returns the guard's policy.
func (g *Guard) Policy() Policy { return g.policy }

// Done returns a channel that is closed once the guard is Idle.
func (g *Guard) Done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.idle
}
