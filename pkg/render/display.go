package render

import "sync"

// Display shows render output. The pipeline calls it from its own
// goroutines, never concurrently.
type Display interface {
	// Clear empties the output before the attempt with the given ID.
	Clear(id string)
	// Mount replaces the output with a successful result.
	Mount(r *Result)
	// ShowError replaces the output with the error placeholder for r.
	ShowError(r *Result)
}

// EventKind names a display change.
type EventKind string

const (
	EventClear EventKind = "clear"
	EventMount EventKind = "mount"
	EventError EventKind = "error"
)

// Event describes one display change.
type Event struct {
	Kind   EventKind
	ID     string
	Result *Result // nil for EventClear
}

// MemoryDisplay keeps the displayed content in memory and forwards every
// change to its subscribers.
type MemoryDisplay struct {
	mu        sync.RWMutex
	id        string
	result    *Result
	listeners map[int]func(Event)
	nextID    int
}

// NewMemoryDisplay returns an empty display.
func NewMemoryDisplay() *MemoryDisplay {
	return &MemoryDisplay{listeners: make(map[int]func(Event))}
}

// Subscribe registers fn for display changes and returns a func that
// removes it. fn must not block.
func (d *MemoryDisplay) Subscribe(fn func(Event)) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

func (d *MemoryDisplay) Clear(id string) {
	d.set(Event{Kind: EventClear, ID: id})
}

func (d *MemoryDisplay) Mount(r *Result) {
	d.set(Event{Kind: EventMount, ID: r.ID, Result: r})
}

func (d *MemoryDisplay) ShowError(r *Result) {
	d.set(Event{Kind: EventError, ID: r.ID, Result: r})
}

func (d *MemoryDisplay) set(ev Event) {
	d.mu.Lock()
	d.id = ev.ID
	d.result = ev.Result
	fns := make([]func(Event), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Content returns what is currently shown: nothing, an SVG document, or
// the error placeholder.
func (d *MemoryDisplay) Content() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.result == nil {
		return nil
	}
	return d.result.Content()
}

// Mounted returns the displayed successful result, or nil.
func (d *MemoryDisplay) Mounted() *Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.result.OK() {
		return nil
	}
	return d.result
}

// ID returns the render ID of the current output.
func (d *MemoryDisplay) ID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id
}

var _ Display = (*MemoryDisplay)(nil)
