// Package sleep arbitrates which energy mode the core may enter.
//
// Peripherals that need a mode kept unavailable call Block on it while busy
// and Unblock when done. Counts are per mode, so independent owners never
// release each other's blocks. Blocking EMn forbids EMn and anything deeper;
// the core then sleeps in EMn-1 at most.
//
//	arb.Block(sleep.EM2)      // e.g. I2C transfer in flight
//	arb.EnterDeepestAllowed() // sleeps in EM1 until the next interrupt
//	arb.Unblock(sleep.EM2)
package sleep

import (
	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/x/mathx"
)

// Mode is an energy mode: EM0 is fully active, higher is deeper sleep.
type Mode uint8

const (
	EM0 Mode = iota
	EM1
	EM2
	EM3
	EM4

	NumModes = 5
)

// DefaultCeiling is the count at which Block reports a pairing bug.
const DefaultCeiling = 5

func (m Mode) String() string {
	switch m {
	case EM0:
		return "EM0"
	case EM1:
		return "EM1"
	case EM2:
		return "EM2"
	case EM3:
		return "EM3"
	case EM4:
		return "EM4"
	}
	return "EM?"
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m < NumModes }

// Sleeper issues the platform's sleep-entry instruction for a mode and
// returns once an interrupt wakes the core. It is never called for EM0.
type Sleeper interface {
	Sleep(m Mode)
}

// Options are optional; zero values select the defaults.
type Options struct {
	// Deepest is the mode entered when nothing is blocked. Default EM3.
	Deepest Mode
	// Ceiling bounds each per-mode count. Default 5, clamped to 2..255.
	Ceiling int
}

// Arbiter owns the block table.
type Arbiter struct {
	cs      irq.Controller
	sl      Sleeper
	deepest Mode
	ceiling uint8

	counts [NumModes]uint8
}

// NewArbiter returns an arbiter with an all-zero block table.
func NewArbiter(cs irq.Controller, sl Sleeper, opts ...Options) *Arbiter {
	a := &Arbiter{cs: cs, sl: sl, deepest: EM3, ceiling: DefaultCeiling}
	if len(opts) > 0 {
		o := opts[0]
		if o.Deepest != EM0 {
			errcode.Assert(o.Deepest.Valid(), "sleep.new", errcode.InvalidMode, o.Deepest.String())
			a.deepest = o.Deepest
		}
		if o.Ceiling != 0 {
			a.ceiling = uint8(mathx.Clamp(o.Ceiling, 2, 255))
		}
	}
	return a
}

// Reset clears every count. Only call at system start.
func (a *Arbiter) Reset() {
	st := a.cs.Disable()
	a.counts = [NumModes]uint8{}
	a.cs.Restore(st)
}

// Block forbids m (and every deeper mode) until the matching Unblock.
func (a *Arbiter) Block(m Mode) {
	if !m.Valid() {
		errcode.Fatal("sleep.block", errcode.InvalidMode, m.String())
		return
	}
	st := a.cs.Disable()
	a.counts[m]++
	over := a.counts[m] >= a.ceiling
	a.cs.Restore(st)
	if over {
		errcode.Fatal("sleep.block", errcode.BlockOverflow, m.String())
	}
}

// Unblock releases one Block on m.
func (a *Arbiter) Unblock(m Mode) {
	if !m.Valid() {
		errcode.Fatal("sleep.unblock", errcode.InvalidMode, m.String())
		return
	}
	st := a.cs.Disable()
	if a.counts[m] == 0 {
		a.cs.Restore(st)
		errcode.Fatal("sleep.unblock", errcode.BlockUnderflow, m.String())
		return
	}
	a.counts[m]--
	a.cs.Restore(st)
}

// Count returns the outstanding blocks on m.
func (a *Arbiter) Count(m Mode) int {
	if !m.Valid() {
		return 0
	}
	return int(a.counts[m])
}

// DeepestAllowed returns the most active mode that has a block, or the
// configured deepest mode when nothing is blocked.
func (a *Arbiter) DeepestAllowed() Mode {
	for m := EM0; m < NumModes; m++ {
		if a.counts[m] != 0 {
			return m
		}
	}
	return a.deepest
}

// Target is the mode EnterDeepestAllowed would enter right now.
func (a *Arbiter) Target() Mode {
	for m := EM0; m < NumModes; m++ {
		if a.counts[m] == 0 {
			continue
		}
		if m <= EM1 {
			return EM0
		}
		return mathx.Min(m-1, a.deepest)
	}
	return a.deepest
}

// EnterDeepestAllowed picks and enters the sleep mode with interrupts masked,
// so no interrupt can add a block between the decision and the entry. The
// waking interrupt is serviced once the mask is restored.
func (a *Arbiter) EnterDeepestAllowed() Mode {
	st := a.cs.Disable()
	m := a.Target()
	if m != EM0 {
		a.sl.Sleep(m)
	}
	a.cs.Restore(st)
	return m
}
