// Command trapcore is the trivial loader spec.md §6 hands off to
// implementers: it reads a flat binary program image into memory and runs
// the engine to completion. It deliberately does no assembling, debugging,
// or breakpoint support (all Non-goals); flag parsing follows
// KTStephano-GVM's main.go (package flag, no subcommands).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trapcore/cpu"
	"trapcore/peripheral"
)

func main() {
	imagePath := flag.String("image", "", "path to a flat binary program image")
	memSize := flag.Int("memsize", 1<<20, "total addressable memory size in bytes")
	withConsole := flag.Bool("console", false, "attach a raw-stdin console peripheral")
	withTimer := flag.Bool("timer", false, "attach a periodic timer peripheral")
	timerPeriod := flag.Duration("timer-period", 10*time.Millisecond, "timer peripheral interrupt period")
	consoleMailbox := flag.Uint("console-mailbox", 0xF000, "byte address the console peripheral writes to")
	timerMailbox := flag.Uint("timer-mailbox", 0xF010, "byte address the timer peripheral writes to")
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "trapcore: -image is required")
		os.Exit(1)
	}

	if err := run(*imagePath, *memSize, *withConsole, *withTimer, *timerPeriod, uint32(*consoleMailbox), uint32(*timerMailbox)); err != nil {
		fmt.Fprintln(os.Stderr, "trapcore:", err)
		os.Exit(1)
	}
}

func run(imagePath string, memSize int, withConsole, withTimer bool, timerPeriod time.Duration, consoleMailbox, timerMailbox uint32) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	if len(image) > memSize {
		return fmt.Errorf("image is %d bytes, larger than memsize %d", len(image), memSize)
	}

	mem := cpu.NewByteMemory(memSize)
	copy(mem, image)

	c, err := cpu.NewCPU(mem)
	if err != nil {
		return fmt.Errorf("creating cpu: %w", err)
	}

	if withTimer {
		peripheral.NewTimer(c, timerMailbox, timerPeriod).Start()
	}
	if withConsole {
		console := peripheral.NewConsole(c, consoleMailbox)
		if err := console.Start(); err != nil {
			return fmt.Errorf("starting console: %w", err)
		}
	}

	c.Run()
	return nil
}
