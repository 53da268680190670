package render

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultDelay is the quiet period after the last edit before rendering.
const DefaultDelay = 300 * time.Millisecond

// Scheduler runs work after a delay. Scheduling again before the delay
// elapses replaces the pending work and restarts the timer.
type Scheduler interface {
	Schedule(f func())
	// Stop drops pending work. Later calls to Schedule are ignored.
	Stop()
}

// Delayer is implemented by schedulers that wait a fixed quiet period.
type Delayer interface {
	Delay() time.Duration
}

// Debouncer is a Scheduler backed by bep/debounce.
type Debouncer struct {
	mu      sync.Mutex
	fn      func(func())
	delay   time.Duration
	stopped bool
}

// NewDebouncer returns a scheduler with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{fn: debounce.New(delay), delay: delay}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

func (d *Debouncer) Schedule(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.fn(func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			f()
		}
	})
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	// replace whatever is pending
	d.fn(func() {})
}

// Immediate is a Scheduler that runs work synchronously. One-shot commands
// use it where there is nothing to debounce.
type Immediate struct {
	mu      sync.Mutex
	stopped bool
}

func (s *Immediate) Schedule(f func()) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped {
		f()
	}
}

func (s *Immediate) Delay() time.Duration { return 0 }

func (s *Immediate) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

var (
	_ Scheduler = (*Debouncer)(nil)
	_ Scheduler = (*Immediate)(nil)
	_ Delayer   = (*Debouncer)(nil)
	_ Delayer   = (*Immediate)(nil)
)
