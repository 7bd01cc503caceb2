package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Ticker defers a pass to a later point in time.
type Ticker interface {
	Schedule(fn func())
}

// Immediate runs fn synchronously on the caller's goroutine.
type Immediate struct{}

func (Immediate) Schedule(fn func()) { fn() }

// Goroutine runs fn on a new goroutine.
type Goroutine struct{}

func (Goroutine) Schedule(fn func()) { go fn() }

// Frame runs fn after one frame interval.
type Frame struct {
	Interval time.Duration
}

func (f Frame) Schedule(fn func()) {
	d := f.Interval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	time.AfterFunc(d, fn)
}

// Debounced runs the most recently scheduled fn once no Schedule call has
// happened for the interval.
type Debounced struct {
	debounced func(func())
}

func NewDebounced(interval time.Duration) *Debounced {
	return &Debounced{debounced: debounce.New(interval)}
}

func (d *Debounced) Schedule(fn func()) { d.debounced(fn) }

func (*Debounced) restartsOnSchedule() {}

// restarter is implemented by tickers whose Schedule replaces the callback
// still waiting and restarts the wait.
type restarter interface {
	restartsOnSchedule()
}

// Manual queues fn until Tick is called. Used by tests and single-threaded
// drivers.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

func (m *Manual) Schedule(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// Tick runs the functions queued before the call and returns how many ran.
// Functions they schedule wait for the next Tick.
func (m *Manual) Tick() int {
	m.mu.Lock()
	queued := m.queue
	m.queue = nil
	m.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
	return len(queued)
}

// Drain ticks until nothing is queued and returns the total number of runs.
func (m *Manual) Drain() int {
	total := 0
	for {
		n := m.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Len returns the number of queued functions.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// TickerOptions selects a ticker by name.
type TickerOptions struct {
	Kind     string // immediate, goroutine, frame, debounce
	Frame    time.Duration
	Debounce time.Duration
}

// NewTicker builds the ticker named by opts.Kind.
func NewTicker(opts TickerOptions) (Ticker, error) {
	switch opts.Kind {
	case "immediate":
		return Immediate{}, nil
	case "goroutine":
		return Goroutine{}, nil
	case "", "frame":
		return Frame{Interval: opts.Frame}, nil
	case "debounce":
		d := opts.Debounce
		if d <= 0 {
			d = 150 * time.Millisecond
		}
		return NewDebounced(d), nil
	}
	return nil, fmt.Errorf("unknown ticker kind %q", opts.Kind)
}
