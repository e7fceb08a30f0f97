package cpu

import "sync"

// event is a set/wait/clear wakeup signal, standing in for Python's
// threading.Event from original_source/pyarch/cpu.go. Go has no stdlib
// equivalent; this reproduces the three operations the trap controller
// needs (Set, Wait, Clear) with a mutex-guarded channel swap, in the same
// spirit as the channel/atomic plumbing KTStephano-GVM's vm/devices.go uses
// for its own cross-goroutine signaling (nonBlockingChan, systemTimer).
type event struct {
	mu   sync.Mutex
	ch   chan struct{}
	done bool
}

func newEvent() *event {
	return &event{ch: make(chan struct{})}
}

// Set wakes any current and future Wait callers until the next Clear.
func (e *event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.done {
		e.done = true
		close(e.ch)
	}
}

// Clear resets the event so that subsequent Wait calls block again.
func (e *event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		e.done = false
		e.ch = make(chan struct{})
	}
}

// Wait blocks until Set is called.
func (e *event) Wait() {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	<-ch
}
