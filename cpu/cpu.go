package cpu

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrEmptyMemory and ErrMemoryTooSmall are returned by NewCPU for
// misconfigurations. These are ordinary Go errors, not architectural traps:
// spec.md §7 explicitly places "unrecoverable / programmer errors inside
// the emulator" outside the trap taxonomy.
var (
	ErrEmptyMemory    = errors.New("cpu: memory must have non-zero length")
	ErrMemoryTooSmall = errors.New("cpu: memory must be at least one instruction (16 bytes) long")
)

// CPU is the register-based fetch-decode-dispatch engine described in
// spec.md. The zero value is not usable; construct with NewCPU.
type CPU struct {
	mu  sync.Mutex
	reg registerFile
	mem Memory

	intrEvent   *event
	intrMask    bool
	intrPending bool

	halted   atomic.Bool
	haltOnce sync.Once
	onHalt   func(HaltInfo)

	exitCh  chan struct{}
	threads sync.WaitGroup
}

// NewCPU creates a CPU against the given memory. Registers initialize to
// zero and PC starts at 0, matching spec.md §3's lifecycle description.
func NewCPU(mem Memory) (*CPU, error) {
	if mem == nil || mem.Len() == 0 {
		return nil, ErrEmptyMemory
	}
	if mem.Len() < 16 {
		return nil, ErrMemoryTooSmall
	}

	c := &CPU{
		mem:       mem,
		intrEvent: newEvent(),
		exitCh:    make(chan struct{}),
	}
	c.onHalt = c.defaultHalt
	return c, nil
}

// SetHaltCallback overrides what Halt does with the final register/memory
// dump. Per spec.md §9 design note 5, halt is redirected through a callback
// rather than terminating the host process; the default callback
// reproduces the original's hex-dump-to-stdout behavior (see dump.go).
func (c *CPU) SetHaltCallback(fn func(HaltInfo)) {
	c.onHalt = fn
}

// Register returns the current value of register idx without taking the
// CPU lock's ordering guarantees into account — callers observing a running
// CPU from another goroutine should not rely on this for anything but
// diagnostics. The index is not range-checked: 0x20 returns the RESVD
// scratch slot, and an index above 0x20 panics.
func (c *CPU) Register(idx uint32) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.get(idx)
}

// Memory returns the CPU's backing store, primarily so peripherals can
// perform the direct-memory-access writes spec.md §5 allows producers to
// make between fetch steps.
func (c *CPU) Memory() Memory { return c.mem }

// RegisterThread must be called by an auxiliary interrupt-producing
// goroutine before it starts, and ThreadDone when it exits. Halt performs a
// bounded join across all registered threads, mirroring
// original_source/pyarch/cpu.py's register_thread/end_threads
// (thread.join(timeout=1)) with a sync.WaitGroup, since that is the
// idiomatic Go equivalent of joining a dynamic set of threads.
func (c *CPU) RegisterThread() {
	c.threads.Add(1)
}

// ThreadDone signals that a thread registered via RegisterThread has
// exited.
func (c *CPU) ThreadDone() {
	c.threads.Done()
}

// Done returns a channel that is closed once Halt has been invoked.
// Auxiliary threads should select on it to know when to stop producing
// interrupts.
func (c *CPU) Done() <-chan struct{} {
	return c.exitCh
}

// Halted reports whether the CPU has executed a halt instruction.
func (c *CPU) Halted() bool {
	return c.halted.Load()
}

// Step performs one fetch-decode-dispatch transaction. Before acquiring the
// CPU lock it cooperatively yields (runtime.Gosched), giving any
// concurrently-ready interrupt-producing goroutine a chance to run — this
// mirrors original_source/pyarch/cpu.py's decode_next_instr, which opens
// with sleep(0) for the same reason under Python's GIL-cooperative
// scheduler. Under Go's preemptive scheduler the yield is unnecessary but
// harmless, exactly as spec.md §9 notes.
func (c *CPU) Step() {
	runtime.Gosched()

	if c.halted.Load() {
		return
	}

	triggeredHalt := false
	c.mu.Lock()
	func() {
		defer c.mu.Unlock()
		defer c.recoverDispatchPanic(&triggeredHalt)
		if c.halted.Load() {
			return
		}
		triggeredHalt = c.decodeAndDispatchLocked()
	}()

	if triggeredHalt {
		c.finalizeHalt()
	}
}

// recoverDispatchPanic is the safety net GVM's getDefaultRecoverFuncForVM
// installs around execInstructions, adapted to this engine's halt-via-
// callback lifecycle instead of a printed errcode: an unexpected panic
// during dispatch halts the CPU cleanly rather than crashing the host
// process. Every direct memory/PC access dispatch can reach is bounds
// checked (wordAddrOK/byteAddrOK), so this should never fire on valid
// input; it exists for whatever those checks miss.
func (c *CPU) recoverDispatchPanic(triggeredHalt *bool) {
	if r := recover(); r != nil {
		c.halted.Store(true)
		*triggeredHalt = true
	}
}

// Run repeatedly steps the CPU until a halt instruction executes.
func (c *CPU) Run() {
	for !c.halted.Load() {
		c.Step()
	}
}

// finalizeHalt performs the join-and-dump work outside the CPU lock, so a
// producer goroutine blocked acquiring the lock inside Intr/Trap is never
// deadlocked against Halt itself — only delayed until the lock is released,
// which has already happened by the time finalizeHalt runs.
func (c *CPU) finalizeHalt() {
	c.haltOnce.Do(func() {
		info := c.snapshot()

		close(c.exitCh)
		waitTimeout(&c.threads, haltJoinTimeout)

		if c.onHalt != nil {
			c.onHalt(info)
		}
	})
}
