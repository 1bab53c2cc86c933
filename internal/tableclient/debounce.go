package tableclient

import (
	"sync"
	"time"
)

// SearchDebouncer coalesces keystrokes into one search update after a quiet
// period. Pagination and filter changes should not go through it; only
// free-text input needs the damping.
type SearchDebouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending string
	armed   bool
	apply   func(searchKey string)
}

// NewSearchDebouncer wires apply to run delay after the last Input call.
func NewSearchDebouncer(delay time.Duration, apply func(searchKey string)) *SearchDebouncer {
	if delay <= 0 {
		delay = 350 * time.Millisecond
	}
	return &SearchDebouncer{delay: delay, apply: apply}
}

// Input records the latest search text and restarts the quiet-period timer.
func (d *SearchDebouncer) Input(searchKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = searchKey
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *SearchDebouncer) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	d.armed = false
	value := d.pending
	d.mu.Unlock()
	d.apply(value)
}

// Flush fires the pending update immediately, if any.
func (d *SearchDebouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire()
}

// Stop cancels any pending update.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
