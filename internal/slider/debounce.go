package slider

import (
	"sync"
	"time"
)

// Debouncer coalesces calls per key: only the last call made within the
// quiet window runs, once the window has passed without another call.
type Debouncer struct {
	wait time.Duration

	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait, pending: make(map[string]*entry)}
}

// Do schedules fn for key, replacing anything already pending for it.
// A non-positive wait runs fn immediately.
func (d *Debouncer) Do(key string, fn func()) {
	if d.wait <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.pending[key]; ok {
		e.timer.Stop()
	}
	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.wait, func() { d.fire(key, e) })
	d.pending[key] = e
}

func (d *Debouncer) fire(key string, e *entry) {
	d.mu.Lock()
	if d.pending[key] != e {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	e.fn()
}

// Pending reports how many keys are waiting.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush runs every pending call now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Stop drops every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
}
