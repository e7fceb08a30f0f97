package cpu

// Trap vectors, fixed numeric values per spec.md §3.
const (
	TrapINTR  = 0x10 // external interrupt
	TrapILL   = 0x20 // illegal opcode / illegal register / illegal address
	TrapDIV   = 0x30 // divide by zero
	TrapDTRAP = 0x40 // double-trap
)

// Trap is the entry point for every trap source: decode-time illegal
// operand/opcode detection, div-by-zero, jmp-to-negative-address, and
// external interrupt delivery all funnel through here.
//
// Go has no recursive/re-entrant sync.Mutex, unlike the RLock the Python
// prototype uses. The double-trap path needs to re-enter trap logic while
// the lock is already held (an instruction may call Trap while executing
// under Step's lock). Per spec.md §9's "Re-entrant trap invocation" note,
// this is resolved by keeping the self-call expression but splitting it
// into an exported lock-acquiring wrapper (Trap) and an unexported
// *Locked method that is free to call itself directly without touching the
// mutex again.
func (c *CPU) Trap(vec uint32) {
	// Signalled before the lock is taken, matching
	// original_source/pyarch/cpu.py's trap(), which sets intr_event before
	// entering `with self.cpu_lock`.
	c.intrEvent.Set()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.trapLocked(vec)
}

func (c *CPU) trapLocked(vec uint32) {
	c.dsiLocked()

	if c.reg.get(RegTRAP) != 0 && vec != TrapDTRAP {
		// Already servicing a trap and this one isn't the double-trap
		// vector itself: escalate.
		c.trapLocked(TrapDTRAP)
		return
	}

	c.reg.set(RegTRAP, 1)
	c.reg.set(RegRET, c.reg.get(RegPC))
	c.jmpLocked(int64(vec))

	c.intrEvent.Clear()
}

// Intr is the external interrupt delivery entry point. Auxiliary
// peripheral goroutines call this after performing their direct-memory
// writes.
//
// Like Trap, it signals intr_event before acquiring the lock. This matters
// even when the interrupt turns out to be masked (no trap delivered): the
// fetch loop's `wait` opcode blocks on this same event while holding the
// CPU lock (see Wait below), so anything that might need that lock to
// complete delivery has to be able to wake a blocked waiter without
// already holding it. Signaling unconditionally — rather than only on the
// unmasked/delivering path, which is what the mask check would otherwise
// require taking the lock just to decide — trades a spurious early wakeup
// of `wait` (harmless: the fetch loop simply re-examines state) for
// freedom from that deadlock.
func (c *CPU) Intr() {
	c.intrEvent.Set()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.intrLocked()
}

func (c *CPU) intrLocked() {
	if c.intrMask {
		// (masked=true, pending=false) -> (masked=true, pending=true).
		// Further deferrals while masked collapse into this same flag.
		c.intrPending = true
		return
	}

	c.intrPending = false
	c.trapLocked(TrapINTR)
}

// Ret returns from the currently-serviced trap, then unmasks interrupts
// (which may immediately redeliver a pending one).
func (c *CPU) Ret() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retLocked()
}

func (c *CPU) retLocked() {
	c.reg.set(RegTRAP, 0)
	c.reg.set(RegPC, c.reg.get(RegRET))
	c.eniLocked()
}

// Eni (enable interrupts) clears the interrupt mask and, if an interrupt
// was deferred while masked, delivers it immediately: (masked=false,
// pending=true) is a transient state that resolves right here.
func (c *CPU) Eni() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eniLocked()
}

func (c *CPU) eniLocked() {
	c.intrMask = false
	if c.intrPending {
		c.intrLocked()
	}
}

// Dsi (disable interrupts) sets the interrupt mask so that external
// interrupts are deferred instead of delivered.
func (c *CPU) Dsi() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dsiLocked()
}

func (c *CPU) dsiLocked() {
	c.intrMask = true
}

// Wait blocks the calling goroutine (the fetch loop, dispatching the `wait`
// opcode) until an interrupt event is signaled, mirroring
// original_source/pyarch/cpu.py's wait(), which blocks on intr_event while
// still holding cpu_lock. That's only safe here because Trap/Intr call
// intrEvent.Set() before attempting to acquire c.mu, so a producer never
// needs the lock Wait is holding in order to wake it.
func (c *CPU) Wait() {
	c.intrEvent.Wait()
}
