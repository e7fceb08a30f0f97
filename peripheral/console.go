//go:build !windows

// Console's non-blocking raw-stdin read loop depends on the Unix-only
// corner of package syscall (SetNonblock), the same split
// IntuitionAmiga-IntuitionEngine draws between terminal_host.go and
// terminal_host_windows.go. A Windows build of this package would need an
// analogous terminal_host_windows.go-style variant; not needed here.

package peripheral

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"

	"trapcore/cpu"
)

// Console reads raw stdin byte-by-byte and delivers each byte to the CPU by
// writing it to MailboxAddr and calling Intr. Grounded on
// IntuitionAmiga-IntuitionEngine's terminal_host.go: raw terminal mode via
// golang.org/x/term, non-blocking reads polled in a goroutine rather than a
// blocking read that can't be cancelled.
type Console struct {
	cpu         *cpu.CPU
	mailboxAddr uint32

	fd           int
	oldTermState *term.State
}

// NewConsole constructs a Console that delivers stdin bytes to the CPU at
// mailboxAddr.
func NewConsole(c *cpu.CPU, mailboxAddr uint32) *Console {
	return &Console{cpu: c, mailboxAddr: mailboxAddr, fd: int(os.Stdin.Fd())}
}

// Start puts stdin into raw, non-blocking mode and begins feeding bytes to
// the CPU. If raw mode can't be set (stdin isn't a terminal, e.g. under
// `go test`), Start logs nothing and returns without launching the reader —
// callers that need a Console in non-interactive contexts should not call
// Start.
func (c *Console) Start() error {
	oldState, err := term.MakeRaw(c.fd)
	if err != nil {
		return fmt.Errorf("peripheral: console raw mode: %w", err)
	}
	c.oldTermState = oldState

	if err := syscall.SetNonblock(c.fd, true); err != nil {
		_ = term.Restore(c.fd, c.oldTermState)
		return fmt.Errorf("peripheral: console nonblocking stdin: %w", err)
	}

	c.cpu.RegisterThread()
	go c.run()
	return nil
}

func (c *Console) run() {
	defer c.cpu.ThreadDone()
	defer c.restore()

	buf := make([]byte, 1)
	for {
		select {
		case <-c.cpu.Done():
			return
		default:
		}

		n, err := syscall.Read(c.fd, buf)
		if n > 0 {
			c.cpu.Memory().WriteByte(c.mailboxAddr, buf[0])
			c.cpu.Intr()
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

func (c *Console) restore() {
	_ = syscall.SetNonblock(c.fd, false)
	if c.oldTermState != nil {
		_ = term.Restore(c.fd, c.oldTermState)
		c.oldTermState = nil
	}
}
