package cpu

import (
	"fmt"
	"strings"
)

// HaltInfo is the final machine state captured the instant halt executes:
// the full register file and a copy of memory, mirroring the two lists
// original_source/pyarch/cpu.py's halt() prints before exiting.
type HaltInfo struct {
	Registers [NumRegisters]int64
	Memory    []byte
}

// snapshot captures HaltInfo under the CPU lock. It's called from
// finalizeHalt, itself invoked just after Step releases the lock, so this
// is the first opportunity to take a lock-consistent copy of the register
// file; memory is copied too since peripherals retain direct write access
// until Done() is observed.
func (c *CPU) snapshot() HaltInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := HaltInfo{Registers: c.reg}
	info.Memory = make([]byte, c.mem.Len())
	for i := 0; i < c.mem.Len(); i++ {
		info.Memory[i] = c.mem.ReadByte(uint32(i))
	}
	return info
}

// defaultHalt reproduces original_source/pyarch/cpu.py's halt() dump
// (registers then memory, both as hex sequences) to stdout, but as a
// callback rather than a call to quit() terminating the process — per
// spec.md §9 design note 5, the engine never owns process lifetime.
func (c *CPU) defaultHalt(info HaltInfo) {
	regs := make([]string, len(info.Registers))
	for i, v := range info.Registers {
		regs[i] = fmt.Sprintf("0x%x", v)
	}
	fmt.Printf("[%s]\n", strings.Join(regs, " "))

	mem := make([]string, len(info.Memory))
	for i, b := range info.Memory {
		mem[i] = fmt.Sprintf("0x%x", b)
	}
	fmt.Printf("[%s]\n", strings.Join(mem, " "))
}
