package tableclient

import (
	"sync"
	"testing"
	"time"
)

type applyRecorder struct {
	mu   sync.Mutex
	got  []string
	done chan struct{}
}

func newApplyRecorder() *applyRecorder {
	return &applyRecorder{done: make(chan struct{}, 16)}
}

func (r *applyRecorder) apply(s string) {
	r.mu.Lock()
	r.got = append(r.got, s)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *applyRecorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func (r *applyRecorder) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("apply never fired")
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	rec := newApplyRecorder()
	d := NewSearchDebouncer(30*time.Millisecond, rec.apply)
	defer d.Stop()

	d.Input("r")
	d.Input("re")
	d.Input("rep")
	d.Input("report")

	rec.waitOne(t)
	if got := rec.values(); len(got) != 1 || got[0] != "report" {
		t.Fatalf("applied %v, want one call with %q", got, "report")
	}
}

func TestDebouncerFlushFiresImmediately(t *testing.T) {
	rec := newApplyRecorder()
	d := NewSearchDebouncer(time.Hour, rec.apply)
	defer d.Stop()

	d.Input("partial")
	d.Flush()
	rec.waitOne(t)
	if got := rec.values(); len(got) != 1 || got[0] != "partial" {
		t.Fatalf("applied %v", got)
	}

	// a second flush with nothing pending must not fire again
	d.Flush()
	if got := rec.values(); len(got) != 1 {
		t.Fatalf("flush with nothing pending fired: %v", got)
	}
}

func TestDebouncerStopDropsPending(t *testing.T) {
	rec := newApplyRecorder()
	d := NewSearchDebouncer(20*time.Millisecond, rec.apply)

	d.Input("doomed")
	d.Stop()
	time.Sleep(80 * time.Millisecond)
	if got := rec.values(); len(got) != 0 {
		t.Fatalf("stopped debouncer still applied %v", got)
	}
}
