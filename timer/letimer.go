// Package timer drives the low-energy periodic timer that paces the
// application. It counts down from the period compare value, fires a compare
// interrupt at the active-period mark and an underflow at the end of each
// period; each enabled source posts its configured event.
package timer

import (
	"time"

	"beaconcode-go/errcode"
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
	"beaconcode-go/x/timex"
)

// Source is one timer interrupt source. Values are distinct bits so they can
// be combined into an enable mask.
type Source uint8

const (
	Underflow Source = 1 << iota
	Comp0
	Comp1
)

func (s Source) String() string {
	switch s {
	case Underflow:
		return "uf"
	case Comp0:
		return "comp0"
	case Comp1:
		return "comp1"
	}
	return "?"
}

// Port is the timer peripheral.
type Port interface {
	// Load sets the top (period) and the active-period compare, in counts.
	Load(top, active uint32)
	EnableIRQ(mask Source)
	Run(on bool)
}

// Config describes one periodic timer.
type Config struct {
	Period time.Duration
	Active time.Duration
	Hz     uint32 // counter clock

	IRQ Source // enabled sources

	UF    sched.Event
	Comp0 sched.Event
	Comp1 sched.Event

	// Mode is blocked while the timer runs; the default EM4 keeps the
	// counter clock alive down to EM3.
	Mode sleep.Mode
}

type Blocker interface {
	Block(m sleep.Mode)
	Unblock(m sleep.Mode)
}

type Poster interface {
	Post(e sched.Event)
}

type Timer struct {
	hw  Port
	arb Blocker
	s   Poster

	cfg     Config
	top     uint32
	running bool
	ticks   uint32
	onUF    func()
}

func New(hw Port, arb Blocker, s Poster) *Timer {
	return &Timer{hw: hw, arb: arb, s: s}
}

// Open programs the timer stopped. Opening a running timer stops it first.
func (t *Timer) Open(cfg Config) error {
	const op = "timer.open"
	if cfg.Mode == sleep.EM0 {
		cfg.Mode = sleep.EM4
	}
	switch {
	case !cfg.Mode.Valid():
		return errcode.New(op, errcode.InvalidMode, cfg.Mode.String())
	case cfg.Hz == 0 || cfg.Period <= 0:
		return errcode.New(op, errcode.InvalidParams, "period and clock must be positive")
	case cfg.Active < 0 || cfg.Active > cfg.Period:
		return errcode.New(op, errcode.InvalidParams, "active period outside period")
	case cfg.IRQ&^(Underflow|Comp0|Comp1) != 0:
		return errcode.New(op, errcode.InvalidParams, "unknown interrupt source")
	}
	top := timex.Counts(cfg.Period, cfg.Hz)
	if top == 0 || top > 0xFFFF {
		return errcode.New(op, errcode.InvalidParams, "period does not fit the 16-bit counter")
	}
	t.Start(false)
	t.cfg = cfg
	t.top = top
	t.ticks = 0
	t.hw.Load(top, timex.Counts(cfg.Active, cfg.Hz))
	t.hw.EnableIRQ(cfg.IRQ)
	return nil
}

// Start runs or stops the timer. Repeating the current state is a no-op, so
// the energy-mode block is taken at most once.
func (t *Timer) Start(enable bool) {
	switch {
	case enable && !t.running:
		t.arb.Block(t.cfg.Mode)
		t.hw.Run(true)
		t.running = true
	case !enable && t.running:
		t.arb.Unblock(t.cfg.Mode)
		t.hw.Run(false)
		t.running = false
	}
}

func (t *Timer) Running() bool { return t.running }

// OnUnderflow registers fn to run in interrupt context on every underflow,
// after the event is posted. It runs even while the main loop is held in a
// blocking wait.
func (t *Timer) OnUnderflow(fn func()) { t.onUF = fn }

// Step handles one decoded interrupt. Called from interrupt context.
func (t *Timer) Step(src Source) {
	if t.cfg.IRQ&src == 0 || src&(src-1) != 0 {
		errcode.Fatal("timer.step", errcode.UnexpectedIRQ, src.String()+" not enabled")
		return
	}
	switch src {
	case Underflow:
		t.ticks++
		t.s.Post(t.cfg.UF)
		if t.onUF != nil {
			t.onUF()
		}
	case Comp0:
		t.s.Post(t.cfg.Comp0)
	case Comp1:
		t.s.Post(t.cfg.Comp1)
	}
}

// Ticks counts underflows since Open.
func (t *Timer) Ticks() uint32 { return t.ticks }

// Top is the programmed period in counts.
func (t *Timer) Top() uint32 { return t.top }

// Config returns the active configuration.
func (t *Timer) Config() Config { return t.cfg }
