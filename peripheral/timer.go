// Package peripheral provides auxiliary interrupt-producing devices that
// run alongside a cpu.CPU, mirroring spec.md §5's "external producer
// threads". Devices talk to the CPU exclusively by writing to an agreed
// mailbox address and then calling CPU.Intr — never through a memory-mapped
// register bus, which spec.md's Non-goals explicitly excludes.
package peripheral

import (
	"encoding/binary"
	"time"

	"trapcore/cpu"
)

// Timer raises an interrupt at a fixed period, writing a monotonically
// increasing tick count (big-endian uint32) to MailboxAddr before each
// Intr call. Grounded on KTStephano-GVM's systemTimer goroutine
// (vm/devices.go), adapted from GVM's request/response bus model to this
// engine's direct-memory-write contract.
type Timer struct {
	cpu         *cpu.CPU
	mailboxAddr uint32
	period      time.Duration
}

// NewTimer constructs a Timer that writes its tick counter to mailboxAddr
// and signals cpu every period. mailboxAddr must address 4 free bytes.
func NewTimer(c *cpu.CPU, mailboxAddr uint32, period time.Duration) *Timer {
	return &Timer{cpu: c, mailboxAddr: mailboxAddr, period: period}
}

// Start launches the timer's goroutine. It registers with the CPU so Halt's
// bounded join waits for it, and exits once CPU.Done() is closed.
func (t *Timer) Start() {
	t.cpu.RegisterThread()

	go func() {
		defer t.cpu.ThreadDone()

		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		var tick uint32
		for {
			select {
			case <-t.cpu.Done():
				return
			case <-ticker.C:
				tick++
				var buf [4]byte
				binary.BigEndian.PutUint32(buf[:], tick)
				mem := t.cpu.Memory()
				for i, b := range buf {
					mem.WriteByte(t.mailboxAddr+uint32(i), b)
				}
				t.cpu.Intr()
			}
		}
	}()
}
