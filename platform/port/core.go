package port

import (
	"beaconcode-go/irq"
	"beaconcode-go/sleep"
)

// Core is the CPU: the soft interrupt controller plus the sleep hook.
type Core struct {
	*irq.Soft
	entered [sleep.NumModes]uint32
	trace   bool
}

// NewCore returns a core whose raise queue holds depth routines.
func NewCore(depth int) *Core {
	return &Core{Soft: irq.NewSoft(depth)}
}

// Trace logs every sleep entry.
func (c *Core) Trace(on bool) { c.trace = on }

// Sleep waits for an interrupt. The arbiter calls it with interrupts masked;
// whatever woke the core runs when the arbiter unmasks.
func (c *Core) Sleep(m sleep.Mode) {
	if m.Valid() {
		c.entered[m]++
	}
	if c.trace {
		println("[core] sleep", m.String())
	}
	c.Idle()
}

// Entered counts sleeps in mode m.
func (c *Core) Entered(m sleep.Mode) uint32 {
	if !m.Valid() {
		return 0
	}
	return c.entered[m]
}
