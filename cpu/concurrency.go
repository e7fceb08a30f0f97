package cpu

import (
	"sync"
	"time"
)

// haltJoinTimeout bounds how long Halt waits for registered auxiliary
// threads to notice CPU.Done() and exit, mirroring
// original_source/pyarch/cpu.py's thread.join(timeout=1).
const haltJoinTimeout = time.Second

// waitTimeout blocks until wg reaches zero or timeout elapses, returning
// true if wg finished in time. sync.WaitGroup has no built-in timeout, so
// this is the standard Go idiom: race a goroutine that closes a channel on
// Wait() completion against a timer.
func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
