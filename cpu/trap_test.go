package cpu

import (
	"sync"
	"testing"
	"time"
)

// Invariant 5: ret after exactly one trap(v) restores PC and clears TRAP.
func TestRetRestoresPCAndClearsTrap(t *testing.T) {
	c := newTestCPU(t, nil)
	c.reg.set(RegPC, 0x200)
	c.mu.Lock()
	c.trapLocked(TrapILL)
	c.mu.Unlock()

	assert(t, c.Register(RegPC) == TrapILL, "PC = 0x%x, want ILL vector", c.Register(RegPC))
	assert(t, c.Register(RegTRAP) == 1, "TRAP = %d, want 1", c.Register(RegTRAP))
	assert(t, c.Register(RegRET) == 0x200, "RET = 0x%x, want 0x200", c.Register(RegRET))

	c.Ret()
	assert(t, c.Register(RegPC) == 0x200, "after ret: PC = 0x%x, want 0x200", c.Register(RegPC))
	assert(t, c.Register(RegTRAP) == 0, "after ret: TRAP = %d, want 0", c.Register(RegTRAP))
}

// Invariant 6: trap(v) while TRAP=1 and v != DTRAP escalates to DTRAP, RET
// is the PC at the moment of the double-trap call.
func TestDoubleTrapSetsRETToCallTimePC(t *testing.T) {
	c := newTestCPU(t, nil)
	c.mu.Lock()
	c.reg.set(RegPC, 0x500)
	c.reg.set(RegTRAP, 1)
	c.trapLocked(TrapDIV)
	c.mu.Unlock()

	assert(t, c.Register(RegPC) == TrapDTRAP, "PC = 0x%x, want DTRAP vector", c.Register(RegPC))
	assert(t, c.Register(RegRET) == 0x500, "RET = 0x%x, want 0x500", c.Register(RegRET))
	assert(t, c.Register(RegTRAP) == 1, "TRAP = %d, want 1", c.Register(RegTRAP))
}

// Invariant 7: with dsi asserted, repeated intr calls collapse to a single
// pending flag; the subsequent eni delivers exactly one INTR trap.
func TestRepeatedMaskedInterruptsCollapseToOne(t *testing.T) {
	c := newTestCPU(t, nil)
	c.Dsi()
	c.Intr()
	c.Intr()
	c.Intr()

	assert(t, c.intrPendingForTest(), "expected intr_pending true after masked Intr calls")
	assert(t, c.Register(RegTRAP) == 0, "expected no trap delivered while masked")

	c.Eni()
	assert(t, c.Register(RegPC) == TrapINTR, "PC = 0x%x, want INTR vector", c.Register(RegPC))
	assert(t, c.Register(RegTRAP) == 1, "TRAP = %d, want 1", c.Register(RegTRAP))
	assert(t, !c.intrPendingForTest(), "expected intr_pending cleared after delivery")
}

func TestUnmaskedInterruptDeliversImmediately(t *testing.T) {
	c := newTestCPU(t, nil)
	c.Intr()
	assert(t, c.Register(RegPC) == TrapINTR, "PC = 0x%x, want INTR vector", c.Register(RegPC))
	assert(t, c.Register(RegTRAP) == 1, "TRAP = %d, want 1", c.Register(RegTRAP))
}

// Wait must be wakeable by a concurrent Intr without deadlocking, even
// though Wait is invoked while the caller already holds the CPU lock (as
// the real `wait` opcode dispatch does).
func TestWaitWakesOnConcurrentIntr(t *testing.T) {
	c := newTestCPU(t, nil)

	done := make(chan struct{})
	go func() {
		c.mu.Lock()
		c.Wait()
		c.mu.Unlock()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Intr()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait did not wake up after Intr: deadlock")
	}
}

// Many producer goroutines calling Intr concurrently with a running fetch
// loop must never deadlock or corrupt trap state; run with -race to check
// for data races on the shared register file / interrupt flags.
func TestConcurrentInterruptsDuringRun(t *testing.T) {
	prog := make([]byte, 0, 16*64)
	for i := 0; i < 64; i++ {
		prog = append(prog, asm([4]int64{int64(OpNop), 0, 0, 0})...)
	}
	prog = append(prog, asm([4]int64{int64(OpHalt), 0, 0, 0})...)

	c := newTestCPU(t, prog)
	// Mask interrupts so concurrent Intr calls race on intr_pending/the lock
	// without diverting the fetch loop's PC, which otherwise would never
	// reliably reach the halt instruction (that's exactly what S5 covers
	// deliberately, single-threaded; here the goal is exercising the lock
	// under concurrent producers, not interrupt delivery timing).
	c.Dsi()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		c.RegisterThread()
		go func() {
			defer wg.Done()
			defer c.ThreadDone()
			for {
				select {
				case <-c.Done():
					return
				default:
					c.Intr()
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	c.Run()
	wg.Wait()
	assert(t, c.Halted(), "expected CPU halted")
}
